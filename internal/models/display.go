package models

import (
	"encoding/json"
	"time"
)

// Presentation states.
const (
	StateIdle     = "idle"
	StateCompact  = "compact"
	StateExpanded = "expanded"
)

// Indicator is a small idle-state glyph.
type Indicator struct {
	Kind  string `json:"kind"`
	Label string `json:"label,omitempty"`
	Warn  bool   `json:"warn,omitempty"`
}

// ProviderSnapshot is one provider's contribution to the display.
type ProviderSnapshot struct {
	ID           string          `json:"id"`
	Priority     int             `json:"priority"`
	Active       bool            `json:"active"`
	WantsCompact bool            `json:"wants_compact"`
	Stale        bool            `json:"stale"`
	Summary      string          `json:"summary,omitempty"`
	Indicators   []Indicator     `json:"indicators,omitempty"`
	Detail       json.RawMessage `json:"detail,omitempty"`
}

// NotificationPayload is the visible notification.
type NotificationPayload struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Body             string        `json:"body,omitempty"`
	Icon             string        `json:"icon,omitempty"`
	Source           string        `json:"source,omitempty"`
	ShownAt          time.Time     `json:"shown_at"`
	AutoDismissAfter time.Duration `json:"auto_dismiss_after"`
	Pending          int           `json:"pending"`
}

// Level is a writable 0..1 control such as volume.
type Level struct {
	Value    float64 `json:"value"`
	Known    bool    `json:"known"`
	Stale    bool    `json:"stale"`
	Writable bool    `json:"writable"`
}

// Controls mirrors the user-adjustable facts.
type Controls struct {
	Volume     Level `json:"volume"`
	Brightness Level `json:"brightness"`
	Focus      bool  `json:"focus"`
}

// Display is the payload every rendering shell consumes. It is a read-only
// projection, rebuilt after every relevant change.
type Display struct {
	State             string               `json:"state"`
	Hovering          bool                 `json:"hovering"`
	CompactProviderID string               `json:"compact_provider_id,omitempty"`
	Notification      *NotificationPayload `json:"notification,omitempty"`
	Providers         []ProviderSnapshot   `json:"providers"`
	Controls          Controls             `json:"controls"`
	Sequence          uint64               `json:"sequence"`
	GeneratedAt       time.Time            `json:"generated_at"`
}

// Provider returns the snapshot for id.
func (d *Display) Provider(id string) (ProviderSnapshot, bool) {
	for _, p := range d.Providers {
		if p.ID == id {
			return p, true
		}
	}
	return ProviderSnapshot{}, false
}

// Compact returns the snapshot driving the compact view.
func (d *Display) Compact() (ProviderSnapshot, bool) {
	if d.CompactProviderID == "" {
		return ProviderSnapshot{}, false
	}
	return d.Provider(d.CompactProviderID)
}

// CapabilityStatus is one capability's resolution state.
type CapabilityStatus struct {
	ID          string    `json:"id"`
	Active      string    `json:"active,omitempty"`
	Unavailable bool      `json:"unavailable"`
	Candidates  []string  `json:"candidates"`
	Demoted     []string  `json:"demoted,omitempty"`
	Binds       int       `json:"binds"`
	LastError   string    `json:"last_error,omitempty"`
	NextRetry   time.Time `json:"next_retry,omitempty"`
}

// ChannelStatus is one channel's freshness.
type ChannelStatus struct {
	Name     string    `json:"name"`
	Known    bool      `json:"known"`
	Stale    bool      `json:"stale"`
	Origin   string    `json:"origin"`
	Strategy string    `json:"strategy,omitempty"`
	Updated  time.Time `json:"updated,omitempty"`
	Seq      uint64    `json:"seq"`
}

// DaemonStatus is the diagnostic view served to `glance status`.
type DaemonStatus struct {
	Version      string             `json:"version"`
	StartedAt    time.Time          `json:"started_at"`
	Capabilities []CapabilityStatus `json:"capabilities"`
	Channels     []ChannelStatus    `json:"channels"`
	Queue        int                `json:"queue"`
}
