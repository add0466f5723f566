package tray

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/glance-io/glance/internal/daemon/provider"
	"github.com/glance-io/glance/internal/daemon/state"
	"github.com/glance-io/glance/internal/models"
)

// view is the menu content derived from one display payload.
type view struct {
	Tooltip      string
	Status       string
	Notification string
	PlayPause    string
	MediaEnabled bool
	Volume       string
	VolumeKnown  bool
	Focus        bool
	TimerActive  bool
	Pomodoro     bool
}

func render(d models.Display) view {
	v := view{
		Status:    "Nothing happening",
		PlayPause: "Play",
		Volume:    "Volume unavailable",
		Focus:     d.Controls.Focus,
	}

	if c, ok := d.Compact(); ok && c.Summary != "" {
		v.Status = c.Summary
	}
	if n := d.Notification; n != nil {
		v.Notification = n.Title
		if n.Pending > 0 {
			v.Notification = fmt.Sprintf("%s (+%d)", n.Title, n.Pending)
		}
	}
	if p, ok := d.Provider(provider.IDMedia); ok && len(p.Detail) > 0 {
		var np state.NowPlaying
		if err := json.Unmarshal(p.Detail, &np); err == nil && np.Player != "" {
			v.MediaEnabled = true
			if np.Status == state.PlaybackPlaying {
				v.PlayPause = "Pause"
			}
		}
	}
	if vol := d.Controls.Volume; vol.Known {
		v.VolumeKnown = vol.Writable
		v.Volume = fmt.Sprintf("Volume %d%%", int(math.Round(vol.Value*100)))
		if vol.Stale {
			v.Volume += " (stale)"
		}
	}
	if p, ok := d.Provider(provider.IDTimer); ok && p.Active {
		v.TimerActive = true
	}
	if p, ok := d.Provider(provider.IDPomodoro); ok && p.Active {
		v.Pomodoro = true
	}

	v.Tooltip = "Glance"
	if v.Status != "Nothing happening" {
		v.Tooltip = "Glance: " + v.Status
	}
	if v.Focus {
		v.Tooltip += " (focus)"
	}
	return v
}
