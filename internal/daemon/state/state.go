// Package state defines the live fact values carried by state channels.
// Values are plain data so channels can compare them structurally.
package state

import "time"

// PlaybackStatus mirrors the MPRIS PlaybackStatus property.
type PlaybackStatus string

const (
	PlaybackStopped PlaybackStatus = "stopped"
	PlaybackPlaying PlaybackStatus = "playing"
	PlaybackPaused  PlaybackStatus = "paused"
)

// NowPlaying is the current media session.
type NowPlaying struct {
	Player   string         `json:"player" yaml:"player"`
	Status   PlaybackStatus `json:"status" yaml:"status"`
	Title    string         `json:"title,omitempty" yaml:"title,omitempty"`
	Artist   string         `json:"artist,omitempty" yaml:"artist,omitempty"`
	Album    string         `json:"album,omitempty" yaml:"album,omitempty"`
	ArtURL   string         `json:"art_url,omitempty" yaml:"art_url,omitempty"`
	Length   time.Duration  `json:"length,omitempty" yaml:"length,omitempty"`
	Position time.Duration  `json:"position,omitempty" yaml:"position,omitempty"`
}

// HasTrack reports whether any track metadata is known.
func (n NowPlaying) HasTrack() bool {
	return n.Title != "" || n.Artist != ""
}

// MediaCommand is a transport command sent to the active player.
type MediaCommand string

const (
	MediaPlayPause MediaCommand = "play-pause"
	MediaNext      MediaCommand = "next"
	MediaPrevious  MediaCommand = "previous"
)

// Battery is the system power source.
type Battery struct {
	Present     bool          `json:"present"`
	Percent     float64       `json:"percent"`
	Charging    bool          `json:"charging"`
	OnAC        bool          `json:"on_ac"`
	TimeToEmpty time.Duration `json:"time_to_empty,omitempty"`
}

// ConnectionKind describes the primary network link.
type ConnectionKind string

const (
	ConnectionNone     ConnectionKind = "none"
	ConnectionEthernet ConnectionKind = "ethernet"
	ConnectionWiFi     ConnectionKind = "wifi"
	ConnectionOther    ConnectionKind = "other"
)

// Network is the primary connectivity state.
type Network struct {
	Online    bool           `json:"online"`
	Kind      ConnectionKind `json:"kind"`
	Name      string         `json:"name,omitempty"`
	Interface string         `json:"interface,omitempty"`
	Signal    int            `json:"signal,omitempty"`
}

// BluetoothDevice is one connected peripheral.
type BluetoothDevice struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Icon    string `json:"icon,omitempty"`
	Battery int    `json:"battery,omitempty"`
}

// Bluetooth lists connected peripherals, sorted by address.
type Bluetooth struct {
	Powered bool              `json:"powered"`
	Devices []BluetoothDevice `json:"devices,omitempty"`
}

// Privacy reports sensors currently in use.
type Privacy struct {
	Camera bool     `json:"camera"`
	Mic    bool     `json:"mic"`
	Apps   []string `json:"apps,omitempty"`
}

// Focus is the do-not-disturb state.
type Focus struct {
	Enabled bool `json:"enabled"`
}

// Event is a calendar entry.
type Event struct {
	ID       string    `json:"id" yaml:"id"`
	Title    string    `json:"title" yaml:"title"`
	Start    time.Time `json:"start" yaml:"start"`
	End      time.Time `json:"end" yaml:"end"`
	Location string    `json:"location,omitempty" yaml:"location,omitempty"`
	AllDay   bool      `json:"all_day,omitempty" yaml:"all_day,omitempty"`
}

// Calendar holds upcoming events sorted by start time.
type Calendar struct {
	Events []Event `json:"events,omitempty"`
}

// Next returns the first event that has not ended at now.
func (c Calendar) Next(now time.Time) (Event, bool) {
	for _, e := range c.Events {
		if e.AllDay {
			continue
		}
		if e.End.IsZero() && !e.Start.Before(now) {
			return e, true
		}
		if e.End.After(now) {
			return e, true
		}
	}
	return Event{}, false
}

// Health is a coarse system load sample.
type Health struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	Load1         float64 `json:"load1"`
}

// TimerPhase is the countdown lifecycle.
type TimerPhase string

const (
	TimerIdle     TimerPhase = "idle"
	TimerRunning  TimerPhase = "running"
	TimerPaused   TimerPhase = "paused"
	TimerFinished TimerPhase = "finished"
)

// Timer is a countdown snapshot. Remaining is truncated to whole
// milliseconds so successive polls compare cleanly.
type Timer struct {
	Phase     TimerPhase    `json:"phase"`
	Duration  time.Duration `json:"duration"`
	Remaining time.Duration `json:"remaining"`
}

// PomodoroPhase is the current pomodoro interval.
type PomodoroPhase string

const (
	PomodoroIdle       PomodoroPhase = "idle"
	PomodoroWork       PomodoroPhase = "work"
	PomodoroShortBreak PomodoroPhase = "short-break"
	PomodoroLongBreak  PomodoroPhase = "long-break"
)

// Pomodoro is a pomodoro cycle snapshot.
type Pomodoro struct {
	Phase          PomodoroPhase `json:"phase"`
	Remaining      time.Duration `json:"remaining"`
	CompletedWorks int           `json:"completed_works"`
}
