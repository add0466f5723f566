package timer

import (
	"context"
	"time"

	"github.com/glance-io/glance/internal/daemon/capability"
	"github.com/glance-io/glance/internal/daemon/state"
)

// CountdownBackend exposes a Countdown as the timer.read capability.
type CountdownBackend struct {
	capability.ReadOnly[state.Timer]
	clock *Countdown
	now   func() time.Time
}

// NewCountdownBackend reads c at the time returned by now.
func NewCountdownBackend(c *Countdown, now func() time.Time) *CountdownBackend {
	return &CountdownBackend{clock: c, now: now}
}

func (b *CountdownBackend) Name() string { return "clock" }

func (b *CountdownBackend) Probe(context.Context) bool { return true }

func (b *CountdownBackend) Read(context.Context) (state.Timer, error) {
	return b.clock.Snapshot(b.now()), nil
}

// PomodoroBackend exposes a Pomodoro as the pomodoro.read capability.
type PomodoroBackend struct {
	capability.ReadOnly[state.Pomodoro]
	clock *Pomodoro
	now   func() time.Time
}

// NewPomodoroBackend reads p at the time returned by now.
func NewPomodoroBackend(p *Pomodoro, now func() time.Time) *PomodoroBackend {
	return &PomodoroBackend{clock: p, now: now}
}

func (b *PomodoroBackend) Name() string { return "clock" }

func (b *PomodoroBackend) Probe(context.Context) bool { return true }

func (b *PomodoroBackend) Read(context.Context) (state.Pomodoro, error) {
	return b.clock.Snapshot(b.now()), nil
}
