package provider

// Evaluated pairs a provider with the status it reported for one decision.
type Evaluated struct {
	Provider Provider
	Status   Status
}

// Evaluate asks each provider for its status once, preserving order.
func Evaluate(providers []Provider) []Evaluated {
	out := make([]Evaluated, len(providers))
	for i, p := range providers {
		out[i] = Evaluated{Provider: p, Status: p.Status()}
	}
	return out
}

// Select returns the active provider with the highest priority. Ties go
// to the earliest in declaration order.
func Select(evaluated []Evaluated) (Evaluated, bool) {
	best := -1
	for i, e := range evaluated {
		if !e.Status.HasActiveContent {
			continue
		}
		if best < 0 || e.Provider.Priority() > evaluated[best].Provider.Priority() {
			best = i
		}
	}
	if best < 0 {
		return Evaluated{}, false
	}
	return evaluated[best], true
}

// SelectCompact picks the provider that drives the compact display.
func SelectCompact(providers []Provider) (Provider, bool) {
	e, ok := Select(Evaluate(providers))
	if !ok {
		return nil, false
	}
	return e.Provider, true
}

// WantsCompact reports whether any active provider asks for the compact view.
func WantsCompact(evaluated []Evaluated) bool {
	for _, e := range evaluated {
		if e.Status.HasActiveContent && e.Status.WantsCompact {
			return true
		}
	}
	return false
}
