package capability

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

type statusReporter interface {
	ID() ID
	Status() Status
	Invalidate()
}

// Registry owns every resolver in a process. A backend instance may be
// registered under at most one capability ID.
type Registry struct {
	mu        sync.Mutex
	owners    map[any]ID
	resolvers map[ID]statusReporter
	defaults  []Option
}

// NewRegistry creates an empty registry. defaults are applied to every
// resolver before its own options.
func NewRegistry(defaults ...Option) *Registry {
	return &Registry{
		owners:    make(map[any]ID),
		resolvers: make(map[ID]statusReporter),
		defaults:  defaults,
	}
}

// Register builds a resolver for id and records ownership of each backend.
func Register[V any](reg *Registry, id ID, strategies []Strategy[V], opts ...Option) (*Resolver[V], error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, exists := reg.resolvers[id]; exists {
		return nil, fmt.Errorf("capability %s already registered", id)
	}
	keys := make([]any, 0, len(strategies))
	for _, s := range strategies {
		key, ok := ownershipKey(s.Backend)
		if !ok {
			continue
		}
		if owner, taken := reg.owners[key]; taken {
			return nil, fmt.Errorf("%w: %s is bound to %s", ErrAlreadyOwned, s.Backend.Name(), owner)
		}
		for _, k := range keys {
			if k == key {
				return nil, fmt.Errorf("%w: %s listed twice for %s", ErrAlreadyOwned, s.Backend.Name(), id)
			}
		}
		keys = append(keys, key)
	}

	all := make([]Option, 0, len(reg.defaults)+len(opts))
	all = append(all, reg.defaults...)
	all = append(all, opts...)
	r := New(id, strategies, all...)

	for _, k := range keys {
		reg.owners[k] = id
	}
	reg.resolvers[id] = r
	return r, nil
}

// ownershipKey identifies a backend instance. Pointer backends are keyed by
// address; uncomparable values cannot be tracked.
func ownershipKey(b any) (any, bool) {
	if b == nil {
		return nil, false
	}
	if !reflect.TypeOf(b).Comparable() {
		return nil, false
	}
	return b, true
}

// Statuses returns every resolver's status sorted by ID.
func (reg *Registry) Statuses() []Status {
	reg.mu.Lock()
	list := make([]statusReporter, 0, len(reg.resolvers))
	for _, r := range reg.resolvers {
		list = append(list, r)
	}
	reg.mu.Unlock()

	out := make([]Status, 0, len(list))
	for _, r := range list {
		out = append(out, r.Status())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Invalidate resets the resolver for id. It reports whether id was known.
func (reg *Registry) Invalidate(id ID) bool {
	reg.mu.Lock()
	r, ok := reg.resolvers[id]
	reg.mu.Unlock()
	if ok {
		r.Invalidate()
	}
	return ok
}

// InvalidateAll resets every resolver, for example after resume from sleep.
func (reg *Registry) InvalidateAll() {
	reg.mu.Lock()
	list := make([]statusReporter, 0, len(reg.resolvers))
	for _, r := range reg.resolvers {
		list = append(list, r)
	}
	reg.mu.Unlock()
	for _, r := range list {
		r.Invalidate()
	}
}
