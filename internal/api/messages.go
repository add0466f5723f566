// Package api defines the daemon's gRPC service: message types, the
// service descriptor, and a typed client.
package api

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/glance-io/glance/internal/models"
)

// Action names a user command.
type Action string

// Commands accepted by Execute.
const (
	ActionPlayPause        Action = "play-pause"
	ActionNext             Action = "next"
	ActionPrevious         Action = "previous"
	ActionSetVolume        Action = "set-volume"
	ActionAdjustVolume     Action = "adjust-volume"
	ActionSetBrightness    Action = "set-brightness"
	ActionAdjustBrightness Action = "adjust-brightness"
	ActionToggleFocus      Action = "toggle-focus"
	ActionStartTimer       Action = "start-timer"
	ActionPauseTimer       Action = "pause-timer"
	ActionResetTimer       Action = "reset-timer"
	ActionStartPomodoro    Action = "start-pomodoro"
	ActionStopPomodoro     Action = "stop-pomodoro"
	ActionSkipPomodoro     Action = "skip-pomodoro"
	ActionNotify           Action = "notify"
	ActionDismiss          Action = "dismiss"
	ActionHoverEnter       Action = "hover-enter"
	ActionHoverExit        Action = "hover-exit"
	ActionRefresh          Action = "refresh"
)

// Actions lists every valid action.
var Actions = []Action{
	ActionPlayPause, ActionNext, ActionPrevious,
	ActionSetVolume, ActionAdjustVolume, ActionSetBrightness, ActionAdjustBrightness,
	ActionToggleFocus,
	ActionStartTimer, ActionPauseTimer, ActionResetTimer,
	ActionStartPomodoro, ActionStopPomodoro, ActionSkipPomodoro,
	ActionNotify, ActionDismiss,
	ActionHoverEnter, ActionHoverExit,
	ActionRefresh,
}

// RequestMeta identifies the client making a request.
type RequestMeta struct {
	Origin   string `json:"origin,omitempty"`
	ClientID string `json:"client_id,omitempty"`
	Version  string `json:"version,omitempty"`
}

// Command is one user command. Value carries levels and deltas, Duration
// carries timer lengths and notification lifetimes.
type Command struct {
	Meta     *RequestMeta  `json:"meta,omitempty"`
	Action   Action        `json:"action"`
	Value    float64       `json:"value,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Title    string        `json:"title,omitempty"`
	Body     string        `json:"body,omitempty"`
	Icon     string        `json:"icon,omitempty"`
}

// Validate rejects unknown actions and notifications without a title.
func (c *Command) Validate() error {
	known := false
	for _, a := range Actions {
		if c.Action == a {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown action %q", c.Action)
	}
	if c.Action == ActionNotify && c.Title == "" {
		return fmt.Errorf("notify requires a title")
	}
	if c.Duration < 0 {
		return fmt.Errorf("negative duration %s", c.Duration)
	}
	return nil
}

// DisplayResponse carries one display payload.
type DisplayResponse struct {
	Display models.Display `json:"display"`
}

// StatusResponse is the daemon's diagnostic view.
type StatusResponse struct {
	Status    models.DaemonStatus    `json:"status"`
	PID       int32                  `json:"pid"`
	Port      int32                  `json:"port"`
	WebPort   int32                  `json:"web_port,omitempty"`
	StartedAt *timestamppb.Timestamp `json:"started_at"`
}
