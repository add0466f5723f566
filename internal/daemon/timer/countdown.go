// Package timer holds the in-process clocks behind the timer and pomodoro
// channels. Clocks are passive: they compute their state from the time
// they are asked about, so reading them never needs a ticking goroutine.
package timer

import (
	"sync"
	"time"

	"github.com/glance-io/glance/internal/daemon/state"
)

// Countdown is a single user timer. Safe for concurrent use.
type Countdown struct {
	mu        sync.Mutex
	phase     state.TimerPhase
	duration  time.Duration
	remaining time.Duration
	deadline  time.Time
}

// NewCountdown returns an idle countdown.
func NewCountdown() *Countdown {
	return &Countdown{phase: state.TimerIdle}
}

// Start (re)starts the countdown for d. Non-positive durations are ignored.
func (c *Countdown) Start(now time.Time, d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = state.TimerRunning
	c.duration = d
	c.remaining = d
	c.deadline = now.Add(d)
}

// Pause freezes a running countdown, or resumes a paused one.
func (c *Countdown) Pause(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settleLocked(now)
	switch c.phase {
	case state.TimerRunning:
		c.remaining = c.deadline.Sub(now)
		c.phase = state.TimerPaused
	case state.TimerPaused:
		c.deadline = now.Add(c.remaining)
		c.phase = state.TimerRunning
	}
}

// Reset returns the countdown to idle.
func (c *Countdown) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = state.TimerIdle
	c.duration = 0
	c.remaining = 0
	c.deadline = time.Time{}
}

// Snapshot returns the countdown state at now.
func (c *Countdown) Snapshot(now time.Time) state.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settleLocked(now)
	t := state.Timer{Phase: c.phase, Duration: c.duration}
	switch c.phase {
	case state.TimerRunning:
		t.Remaining = c.deadline.Sub(now).Truncate(time.Millisecond)
	case state.TimerPaused:
		t.Remaining = c.remaining.Truncate(time.Millisecond)
	}
	return t
}

func (c *Countdown) settleLocked(now time.Time) {
	if c.phase == state.TimerRunning && !now.Before(c.deadline) {
		c.phase = state.TimerFinished
		c.remaining = 0
	}
}
