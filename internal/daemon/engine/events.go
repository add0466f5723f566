package engine

import (
	"fmt"
	"sort"

	"github.com/glance-io/glance/internal/daemon/channel"
	"github.com/glance-io/glance/internal/daemon/notification"
	"github.com/glance-io/glance/internal/daemon/state"
)

// Notification sources raised by the engine itself.
const (
	SourceTimer     = "timer"
	SourcePomodoro  = "pomodoro"
	SourceBattery   = "battery"
	SourceBluetooth = "bluetooth"
)

// eventState remembers the last observed value of each fact that raises
// notifications on transitions.
type eventState struct {
	timerPhase    state.TimerPhase
	pomodoroPhase state.PomodoroPhase
	batteryLow    bool
	// devices is nil until the first known bluetooth snapshot.
	devices map[string]string
}

func (c *Core) onTimer(s channel.Snapshot[state.Timer]) {
	if !s.Known {
		return
	}
	prev := c.events.timerPhase
	c.events.timerPhase = s.Value.Phase
	if prev == state.TimerRunning && s.Value.Phase == state.TimerFinished {
		c.queue.Enqueue(notification.Payload{
			Title:  "Timer finished",
			Body:   fmt.Sprintf("%s is up", formatClock(s.Value.Duration)),
			Icon:   "alarm",
			Source: SourceTimer,
		}, 0)
	}
}

func (c *Core) onPomodoro(s channel.Snapshot[state.Pomodoro]) {
	if !s.Known {
		return
	}
	prev := c.events.pomodoroPhase
	next := s.Value.Phase
	c.events.pomodoroPhase = next
	// Starting and stopping are user actions; only automatic phase changes
	// are announced.
	if prev == next || prev == "" || prev == state.PomodoroIdle || next == state.PomodoroIdle {
		return
	}
	p := notification.Payload{Icon: "pomodoro", Source: SourcePomodoro}
	switch next {
	case state.PomodoroWork:
		p.Title = "Back to work"
		p.Body = fmt.Sprintf("%d intervals done", s.Value.CompletedWorks)
	case state.PomodoroShortBreak:
		p.Title = "Short break"
		p.Body = "Stand up and stretch"
	case state.PomodoroLongBreak:
		p.Title = "Long break"
		p.Body = fmt.Sprintf("%d intervals done", s.Value.CompletedWorks)
	default:
		return
	}
	c.queue.Enqueue(p, 0)
}

func (c *Core) onBattery(s channel.Snapshot[state.Battery]) {
	if !s.Known {
		return
	}
	b := s.Value
	low := b.Present && !b.Charging && !b.OnAC && b.Percent <= thresholds(c.settings.Thresholds).BatteryLow
	was := c.events.batteryLow
	c.events.batteryLow = low
	if !low || was || !c.settings.Notifications.BatteryLow {
		return
	}
	c.queue.Enqueue(notification.Payload{
		Title:  "Battery low",
		Body:   fmt.Sprintf("%.0f%% remaining", b.Percent),
		Icon:   "battery-low",
		Source: SourceBattery,
	}, 0)
}

func (c *Core) onBluetooth(s channel.Snapshot[state.Bluetooth]) {
	if !s.Known {
		return
	}
	current := make(map[string]string, len(s.Value.Devices))
	for _, d := range s.Value.Devices {
		current[d.Address] = d.Name
	}
	prev := c.events.devices
	c.events.devices = current
	if prev == nil || !c.settings.Notifications.Bluetooth {
		return
	}
	for _, d := range s.Value.Devices {
		if _, ok := prev[d.Address]; !ok {
			c.queue.Enqueue(notification.Payload{
				Title:  "Connected",
				Body:   d.Name,
				Icon:   "bluetooth",
				Source: SourceBluetooth,
			}, 0)
		}
	}
	var gone []string
	for addr := range prev {
		if _, ok := current[addr]; !ok {
			gone = append(gone, addr)
		}
	}
	sort.Strings(gone)
	for _, addr := range gone {
		c.queue.Enqueue(notification.Payload{
			Title:  "Disconnected",
			Body:   prev[addr],
			Icon:   "bluetooth",
			Source: SourceBluetooth,
		}, 0)
	}
}
