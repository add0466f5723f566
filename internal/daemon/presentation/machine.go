// Package presentation owns the Idle / Compact / Expanded display mode.
package presentation

import (
	"log/slog"
	"time"

	"github.com/glance-io/glance/internal/daemon/loop"
)

// DefaultExitDebounce is how long the panel stays expanded after the
// pointer leaves it.
const DefaultExitDebounce = 400 * time.Millisecond

// State is the display mode.
type State int

const (
	Idle State = iota
	Compact
	Expanded
)

func (s State) String() string {
	switch s {
	case Compact:
		return "compact"
	case Expanded:
		return "expanded"
	default:
		return "idle"
	}
}

// Machine must only be used from the loop goroutine.
type Machine struct {
	lp       loop.Loop
	debounce time.Duration
	// wantsCompact is asked at decision time, never cached.
	wantsCompact func() bool
	logger       *slog.Logger

	state    State
	hovering bool

	// exitGen identifies the current hover-exit episode.
	exitGen   uint64
	exitTimer loop.Timer

	listeners []func(from, to State)
}

// New creates a machine in Idle. wantsCompact reports whether current
// content should hold the compact view.
func New(lp loop.Loop, debounce time.Duration, wantsCompact func() bool, logger *slog.Logger) *Machine {
	if debounce <= 0 {
		debounce = DefaultExitDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		lp:           lp,
		debounce:     debounce,
		wantsCompact: wantsCompact,
		logger:       logger.With("component", "presentation"),
		state:        Idle,
	}
}

// OnTransition registers fn for every state change.
func (m *Machine) OnTransition(fn func(from, to State)) {
	m.listeners = append(m.listeners, fn)
}

// State returns the current mode.
func (m *Machine) State() State {
	return m.state
}

// Hovering reports whether the pointer is over the panel.
func (m *Machine) Hovering() bool {
	return m.hovering
}

// SetDebounce changes the hover-exit delay for future exits.
func (m *Machine) SetDebounce(d time.Duration) {
	if d <= 0 {
		d = DefaultExitDebounce
	}
	m.debounce = d
}

// HoverEnter expands immediately and cancels any pending exit.
func (m *Machine) HoverEnter() {
	m.hovering = true
	m.cancelExit()
	m.transition(Expanded)
}

// HoverExit schedules the collapse. The target is decided when the delay
// expires, against the state at that moment.
func (m *Machine) HoverExit() {
	if !m.hovering {
		return
	}
	m.hovering = false
	m.cancelExit()
	gen := m.exitGen
	m.exitTimer = m.lp.After(m.debounce, func() { m.exitExpired(gen) })
}

// Reevaluate applies content changes while the pointer is away.
func (m *Machine) Reevaluate() {
	if m.hovering || m.exitTimer != nil {
		return
	}
	m.transition(m.target())
}

// Close cancels any pending exit.
func (m *Machine) Close() {
	m.cancelExit()
}

func (m *Machine) exitExpired(gen uint64) {
	if gen != m.exitGen || m.hovering {
		return
	}
	m.exitTimer = nil
	m.transition(m.target())
}

func (m *Machine) cancelExit() {
	m.exitGen++
	if m.exitTimer != nil {
		m.exitTimer.Stop()
		m.exitTimer = nil
	}
}

func (m *Machine) target() State {
	if m.wantsCompact != nil && m.wantsCompact() {
		return Compact
	}
	return Idle
}

func (m *Machine) transition(to State) {
	if to == m.state {
		return
	}
	from := m.state
	m.state = to
	m.logger.Debug("presentation transition", "from", from, "to", to)
	for _, fn := range m.listeners {
		fn(from, to)
	}
}
