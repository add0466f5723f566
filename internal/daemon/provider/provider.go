// Package provider turns channel snapshots into display candidates and
// picks the one that drives the compact display.
//
// Providers are pure views over their inputs: Status never blocks, never
// fails, and degrades to neutral values when inputs are unknown.
package provider

import (
	"github.com/glance-io/glance/internal/daemon/channel"
)

// Provider IDs.
const (
	IDNotification     = "notification"
	IDTimer            = "timer"
	IDPomodoro         = "pomodoro"
	IDMedia            = "media"
	IDCalendar         = "calendar"
	IDBattery          = "battery"
	IDMediaPlaceholder = "media-placeholder"
	IDHealth           = "health"
	IDPrivacy          = "privacy"
	IDBluetooth        = "bluetooth"
	IDNetwork          = "network"
	IDFocus            = "focus"
)

// Static priorities. Higher wins.
const (
	PriorityNotification = 100
	PriorityTimer        = 70
	PriorityPomodoro     = 70
	PriorityMedia        = 50
	PriorityCalendar     = 30
	PriorityBattery      = 20
	PriorityPlaceholder  = 10
	PriorityHealth       = 5
	PriorityIndicator    = 0
)

// Indicator is a small idle-state glyph such as a mic-in-use dot.
type Indicator struct {
	Kind  string `json:"kind"`
	Label string `json:"label,omitempty"`
	Warn  bool   `json:"warn,omitempty"`
}

// Status is what a provider currently offers.
type Status struct {
	HasActiveContent bool
	WantsCompact     bool
	Stale            bool
	Indicators       []Indicator
	Detail           any
}

// Provider is one feature domain's view of the live state.
type Provider interface {
	ID() string
	Priority() int
	Status() Status
}

// Reader yields the latest channel snapshot. *channel.Channel satisfies it.
type Reader[V any] interface {
	Read() channel.Snapshot[V]
}

// Static is a Reader over a fixed snapshot.
type Static[V any] channel.Snapshot[V]

func (s Static[V]) Read() channel.Snapshot[V] { return channel.Snapshot[V](s) }

type base struct {
	id       string
	priority int
}

func (b base) ID() string    { return b.id }
func (b base) Priority() int { return b.priority }
