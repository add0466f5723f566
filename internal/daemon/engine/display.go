package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/glance-io/glance/internal/daemon/channel"
	"github.com/glance-io/glance/internal/daemon/presentation"
	"github.com/glance-io/glance/internal/daemon/provider"
	"github.com/glance-io/glance/internal/daemon/state"
	"github.com/glance-io/glance/internal/models"
)

func (c *Core) buildDisplay(evaluated []provider.Evaluated) models.Display {
	d := models.Display{
		State:     c.machine.State().String(),
		Hovering:  c.machine.Hovering(),
		Providers: make([]models.ProviderSnapshot, 0, len(evaluated)),
		Controls: models.Controls{
			Volume:     level(c.volume.Read(), c.volume.Writable()),
			Brightness: level(c.brightness.Read(), c.brightness.Writable()),
			Focus:      c.focus.Read().Value.Enabled,
		},
	}
	if c.machine.State() != presentation.Idle {
		if top, ok := provider.Select(evaluated); ok {
			d.CompactProviderID = top.Provider.ID()
		}
	}
	if item, ok := c.queue.Current(); ok {
		d.Notification = &models.NotificationPayload{
			ID:               item.ID,
			Title:            item.Payload.Title,
			Body:             item.Payload.Body,
			Icon:             item.Payload.Icon,
			Source:           item.Payload.Source,
			ShownAt:          item.ShownAt,
			AutoDismissAfter: item.AutoDismissAfter,
			Pending:          c.queue.Pending(),
		}
	}

	for _, e := range evaluated {
		st := e.Status
		ps := models.ProviderSnapshot{
			ID:           e.Provider.ID(),
			Priority:     e.Provider.Priority(),
			Active:       st.HasActiveContent,
			WantsCompact: st.WantsCompact,
			Stale:        st.Stale,
			Summary:      summarize(st.Detail),
		}
		for _, ind := range st.Indicators {
			ps.Indicators = append(ps.Indicators, models.Indicator{Kind: ind.Kind, Label: ind.Label, Warn: ind.Warn})
		}
		if st.Detail != nil {
			raw, err := json.Marshal(st.Detail)
			if err != nil {
				c.logger.Warn("encoding provider detail", "provider", ps.ID, "error", err)
			} else {
				ps.Detail = raw
			}
		}
		d.Providers = append(d.Providers, ps)
	}
	return d
}

func level(s channel.Snapshot[float64], writable bool) models.Level {
	return models.Level{
		Value:    s.Value,
		Known:    s.Known,
		Stale:    s.Stale,
		Writable: writable,
	}
}

// summarize renders a one-line description of a provider detail.
func summarize(detail any) string {
	switch v := detail.(type) {
	case provider.NotificationDetail:
		return v.Item.Payload.Title
	case state.Timer:
		switch v.Phase {
		case state.TimerPaused:
			return formatClock(v.Remaining) + " paused"
		case state.TimerFinished:
			return "done"
		}
		return formatClock(v.Remaining)
	case state.Pomodoro:
		if v.Phase == state.PomodoroIdle {
			return ""
		}
		return fmt.Sprintf("%s %s", v.Phase, formatClock(v.Remaining))
	case state.NowPlaying:
		switch {
		case v.Title != "" && v.Artist != "":
			return v.Title + " · " + v.Artist
		case v.Title != "":
			return v.Title
		}
		return v.Player
	case provider.CalendarDetail:
		if v.StartsIn < time.Minute {
			return v.Event.Title + " now"
		}
		return fmt.Sprintf("%s in %dm", v.Event.Title, int(v.StartsIn.Round(time.Minute)/time.Minute))
	case state.Battery:
		if !v.Present {
			return ""
		}
		return fmt.Sprintf("%.0f%%", v.Percent)
	case state.Health:
		return fmt.Sprintf("cpu %.0f%% mem %.0f%%", v.CPUPercent, v.MemoryPercent)
	case state.Network:
		if !v.Online {
			return "offline"
		}
		return v.Name
	}
	return ""
}

// formatClock renders d as m:ss, or h:mm:ss from one hour up.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int(d.Round(time.Second) / time.Second)
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, s/60%60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
