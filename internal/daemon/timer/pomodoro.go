package timer

import (
	"sync"
	"time"

	"github.com/glance-io/glance/internal/daemon/state"
)

// PomodoroConfig sets the cycle lengths.
type PomodoroConfig struct {
	Work          time.Duration
	ShortBreak    time.Duration
	LongBreak     time.Duration
	LongBreakEach int
}

// DefaultPomodoroConfig is the classic 25/5/15 cycle with a long break
// after every fourth work interval.
func DefaultPomodoroConfig() PomodoroConfig {
	return PomodoroConfig{
		Work:          25 * time.Minute,
		ShortBreak:    5 * time.Minute,
		LongBreak:     15 * time.Minute,
		LongBreakEach: 4,
	}
}

func (c PomodoroConfig) normalized() PomodoroConfig {
	def := DefaultPomodoroConfig()
	if c.Work <= 0 {
		c.Work = def.Work
	}
	if c.ShortBreak <= 0 {
		c.ShortBreak = def.ShortBreak
	}
	if c.LongBreak <= 0 {
		c.LongBreak = def.LongBreak
	}
	if c.LongBreakEach <= 0 {
		c.LongBreakEach = def.LongBreakEach
	}
	return c
}

// Pomodoro cycles work and break intervals until stopped. Safe for
// concurrent use.
type Pomodoro struct {
	mu        sync.Mutex
	cfg       PomodoroConfig
	phase     state.PomodoroPhase
	deadline  time.Time
	completed int
}

// NewPomodoro returns an idle pomodoro.
func NewPomodoro(cfg PomodoroConfig) *Pomodoro {
	return &Pomodoro{cfg: cfg.normalized(), phase: state.PomodoroIdle}
}

// Configure replaces the cycle lengths. A running interval keeps its
// deadline; the next interval uses the new lengths.
func (p *Pomodoro) Configure(cfg PomodoroConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg = cfg.normalized()
}

// Start begins a work interval at now and clears the completed count.
func (p *Pomodoro) Start(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed = 0
	p.phase = state.PomodoroWork
	p.deadline = now.Add(p.cfg.Work)
}

// Stop returns to idle.
func (p *Pomodoro) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phase = state.PomodoroIdle
	p.deadline = time.Time{}
	p.completed = 0
}

// Skip ends the current interval at now and moves to the next one.
func (p *Pomodoro) Skip(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advanceLocked(now)
	if p.phase == state.PomodoroIdle {
		return
	}
	p.deadline = now
	p.advanceLocked(now)
}

// Snapshot returns the pomodoro state at now, rolling over any intervals
// that ended since the last call.
func (p *Pomodoro) Snapshot(now time.Time) state.Pomodoro {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advanceLocked(now)
	s := state.Pomodoro{Phase: p.phase, CompletedWorks: p.completed}
	if p.phase != state.PomodoroIdle {
		s.Remaining = p.deadline.Sub(now).Truncate(time.Second)
	}
	return s
}

func (p *Pomodoro) advanceLocked(now time.Time) {
	if p.phase == state.PomodoroIdle {
		return
	}
	for !now.Before(p.deadline) {
		switch p.phase {
		case state.PomodoroWork:
			p.completed++
			if p.completed%p.cfg.LongBreakEach == 0 {
				p.phase = state.PomodoroLongBreak
				p.deadline = p.deadline.Add(p.cfg.LongBreak)
			} else {
				p.phase = state.PomodoroShortBreak
				p.deadline = p.deadline.Add(p.cfg.ShortBreak)
			}
		default:
			p.phase = state.PomodoroWork
			p.deadline = p.deadline.Add(p.cfg.Work)
		}
	}
}
