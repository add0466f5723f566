package engine

import (
	"context"
	"math"
	"time"

	"github.com/glance-io/glance/internal/daemon/channel"
	"github.com/glance-io/glance/internal/daemon/notification"
	"github.com/glance-io/glance/internal/daemon/state"
)

// mediaCommandTimeout bounds one transport command.
const mediaCommandTimeout = 2 * time.Second

// TogglePlayPause toggles playback on the active player.
func (c *Core) TogglePlayPause() { c.media(state.MediaPlayPause) }

// NextTrack skips to the next track.
func (c *Core) NextTrack() { c.media(state.MediaNext) }

// PreviousTrack goes back one track.
func (c *Core) PreviousTrack() { c.media(state.MediaPrevious) }

func (c *Core) media(cmd state.MediaCommand) {
	c.lp.Post(func() {
		c.mediaQueue = append(c.mediaQueue, cmd)
		c.sendMedia()
	})
}

// sendMedia issues the oldest queued transport command unless one is
// already in flight. Commands reach the player in the order they were given.
func (c *Core) sendMedia() {
	if c.mediaBusy || len(c.mediaQueue) == 0 {
		return
	}
	cmd := c.mediaQueue[0]
	c.mediaQueue = c.mediaQueue[1:]
	c.mediaBusy = true

	parent := c.ctx
	if parent == nil {
		parent = context.Background()
	}
	c.lp.Go(func() {
		ctx, cancel := context.WithTimeout(parent, mediaCommandTimeout)
		defer cancel()
		_, err := c.mediaCmd.Write(ctx, cmd)
		c.lp.Post(func() {
			c.mediaBusy = false
			if err != nil {
				c.logger.Debug("media command failed", "command", cmd, "error", err)
			} else {
				c.nowPlaying.Refresh()
			}
			c.sendMedia()
		})
	})
}

// SetVolume sets the output volume, clamped to 0..1.
func (c *Core) SetVolume(v float64) {
	c.lp.Post(func() { c.writeLevel(c.volume, clamp01(v)) })
}

// AdjustVolume moves the volume by delta from its current value.
func (c *Core) AdjustVolume(delta float64) {
	c.lp.Post(func() { c.adjustLevel(c.volume, delta) })
}

// SetBrightness sets the display brightness, clamped to 0..1.
func (c *Core) SetBrightness(v float64) {
	c.lp.Post(func() { c.writeLevel(c.brightness, clamp01(v)) })
}

// AdjustBrightness moves the brightness by delta from its current value.
func (c *Core) AdjustBrightness(delta float64) {
	c.lp.Post(func() { c.adjustLevel(c.brightness, delta) })
}

func (c *Core) writeLevel(ch *channel.Channel[float64], v float64) {
	if err := ch.Write(v); err != nil {
		c.logger.Debug("write ignored", "channel", ch.Name(), "error", err)
	}
}

func (c *Core) adjustLevel(ch *channel.Channel[float64], delta float64) {
	s := ch.Read()
	if !s.Known {
		c.logger.Debug("adjust ignored", "channel", ch.Name(), "reason", "unknown level")
		return
	}
	c.writeLevel(ch, clamp01(s.Value+delta))
}

// ToggleFocus flips do-not-disturb.
func (c *Core) ToggleFocus() {
	c.lp.Post(func() {
		s := c.focus.Read()
		if err := c.focus.Write(state.Focus{Enabled: !s.Value.Enabled}); err != nil {
			c.logger.Debug("write ignored", "channel", c.focus.Name(), "error", err)
		}
	})
}

// StartTimer starts a countdown of d, replacing any running one. A
// non-positive d uses the configured default.
func (c *Core) StartTimer(d time.Duration) {
	c.lp.Post(func() {
		if d <= 0 {
			d = c.settings.Controls.DefaultTimer
		}
		c.countdown.Start(c.lp.Now(), d)
		c.timerCh.Refresh()
	})
}

// PauseTimer pauses a running countdown or resumes a paused one.
func (c *Core) PauseTimer() {
	c.lp.Post(func() {
		c.countdown.Pause(c.lp.Now())
		c.timerCh.Refresh()
	})
}

// ResetTimer returns the countdown to idle.
func (c *Core) ResetTimer() {
	c.lp.Post(func() {
		c.countdown.Reset()
		c.timerCh.Refresh()
	})
}

// StartPomodoro begins a work interval.
func (c *Core) StartPomodoro() {
	c.lp.Post(func() {
		c.pomodoro.Start(c.lp.Now())
		c.pomodoroCh.Refresh()
	})
}

// StopPomodoro ends the cycle.
func (c *Core) StopPomodoro() {
	c.lp.Post(func() {
		c.pomodoro.Stop()
		c.pomodoroCh.Refresh()
	})
}

// SkipPomodoro ends the current interval early.
func (c *Core) SkipPomodoro() {
	c.lp.Post(func() {
		c.pomodoro.Skip(c.lp.Now())
		c.pomodoroCh.Refresh()
	})
}

// Notify queues a notification. A non-positive autoDismissAfter uses the
// default.
func (c *Core) Notify(p notification.Payload, autoDismissAfter time.Duration) {
	c.lp.Post(func() { c.queue.Enqueue(p, autoDismissAfter) })
}

// DismissNotification hides the visible notification.
func (c *Core) DismissNotification() {
	c.lp.Post(func() { c.queue.DismissCurrent() })
}

// HoverEnter reports the pointer entering the panel.
func (c *Core) HoverEnter() {
	c.lp.Post(c.machine.HoverEnter)
}

// HoverExit reports the pointer leaving the panel.
func (c *Core) HoverExit() {
	c.lp.Post(c.machine.HoverExit)
}

// Refresh drops every capability binding, so the next operation on each
// re-resolves from the top of its strategy list, and re-polls every channel.
func (c *Core) Refresh() {
	c.lp.Go(c.registry.InvalidateAll)
	c.lp.Post(func() {
		for _, ch := range c.channels {
			ch.invalidate()
		}
	})
}

// RefreshCalendar re-resolves and re-polls the calendar channel only.
func (c *Core) RefreshCalendar() {
	c.lp.Post(c.calendar.Invalidate)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
