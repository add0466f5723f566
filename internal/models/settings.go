package models

import "time"

// Channel names. They key the polling table and appear in logs and metrics.
const (
	ChannelVolume     = "volume"
	ChannelBrightness = "brightness"
	ChannelTimer      = "timer"
	ChannelPomodoro   = "pomodoro"
	ChannelNowPlaying = "nowplaying"
	ChannelPrivacy    = "privacy"
	ChannelBluetooth  = "bluetooth"
	ChannelBattery    = "battery"
	ChannelNetwork    = "network"
	ChannelFocus      = "focus"
	ChannelHealth     = "health"
	ChannelCalendar   = "calendar"
)

// Polling is one channel's cadence. Zero StaleAfter means three intervals;
// zero Grace means the channel default.
type Polling struct {
	Interval   time.Duration `yaml:"interval"`
	StaleAfter time.Duration `yaml:"stale_after,omitempty"`
	Grace      time.Duration `yaml:"grace,omitempty"`
}

// PollingTable maps channel name to cadence.
type PollingTable map[string]Polling

// DefaultPollingTable is tuned to each fact's volatility and read cost.
func DefaultPollingTable() PollingTable {
	return PollingTable{
		ChannelVolume:     {Interval: 500 * time.Millisecond, Grace: 750 * time.Millisecond},
		ChannelBrightness: {Interval: 500 * time.Millisecond, Grace: 750 * time.Millisecond},
		ChannelTimer:      {Interval: 250 * time.Millisecond},
		ChannelPomodoro:   {Interval: 250 * time.Millisecond},
		ChannelNowPlaying: {Interval: time.Second},
		ChannelPrivacy:    {Interval: 2 * time.Second},
		ChannelBluetooth:  {Interval: 5 * time.Second},
		ChannelBattery:    {Interval: 10 * time.Second},
		ChannelNetwork:    {Interval: 5 * time.Second},
		ChannelFocus:      {Interval: 5 * time.Second, Grace: 2 * time.Second},
		ChannelHealth:     {Interval: 5 * time.Second},
		ChannelCalendar:   {Interval: time.Minute, StaleAfter: 10 * time.Minute},
	}
}

// Get returns the cadence for name, falling back to the defaults.
func (t PollingTable) Get(name string) Polling {
	if p, ok := t[name]; ok && p.Interval > 0 {
		return p
	}
	return DefaultPollingTable()[name]
}

// NotificationsConfig holds notification queue timing.
type NotificationsConfig struct {
	Gap            time.Duration `yaml:"gap"`
	DefaultDismiss time.Duration `yaml:"default_dismiss"`
	BatteryLow     bool          `yaml:"battery_low"`
	Bluetooth      bool          `yaml:"bluetooth"`
}

// PresentationConfig holds display state machine timing.
type PresentationConfig struct {
	HoverExitDebounce time.Duration `yaml:"hover_exit_debounce"`
}

// ThresholdsConfig holds activation thresholds, in percent.
type ThresholdsConfig struct {
	BatteryLow float64 `yaml:"battery_low"`
	CPUHigh    float64 `yaml:"cpu_high"`
	MemoryHigh float64 `yaml:"memory_high"`
}

// PomodoroConfig holds pomodoro interval lengths.
type PomodoroConfig struct {
	Work          time.Duration `yaml:"work"`
	ShortBreak    time.Duration `yaml:"short_break"`
	LongBreak     time.Duration `yaml:"long_break"`
	LongBreakEach int           `yaml:"long_break_each"`
}

// CalendarConfig holds calendar settings.
type CalendarConfig struct {
	ImminentWindow time.Duration `yaml:"imminent_window"`
	Lookahead      time.Duration `yaml:"lookahead"`
	// Google is used when credentials and a token exist under ~/.glance.
	Google     bool          `yaml:"google"`
	CalendarID string        `yaml:"calendar_id"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
}

// ControlsConfig holds step sizes for relative adjustments.
type ControlsConfig struct {
	VolumeStep     float64       `yaml:"volume_step"`
	BrightnessStep float64       `yaml:"brightness_step"`
	DefaultTimer   time.Duration `yaml:"default_timer"`
}

// LoggingConfig controls daemon logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `yaml:"format"` // "text" | "json"
}

// ServerConfig controls optional listeners.
type ServerConfig struct {
	// WebPort serves gRPC-web and /metrics when non-zero.
	WebPort int `yaml:"web_port"`
}

// UpdatesConfig holds settings for update checking.
type UpdatesConfig struct {
	CheckOnStartup bool       `yaml:"check_on_startup"`
	CheckFrequency string     `yaml:"check_frequency"` // "every_launch" | "daily" | "weekly"
	LastChecked    *time.Time `yaml:"last_checked,omitempty"`
}

// Settings represents global application settings.
// This corresponds to ~/.glance/settings.yaml.
type Settings struct {
	Version       int                 `yaml:"version"`
	Polling       PollingTable        `yaml:"polling"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Presentation  PresentationConfig  `yaml:"presentation"`
	Thresholds    ThresholdsConfig    `yaml:"thresholds"`
	Pomodoro      PomodoroConfig      `yaml:"pomodoro"`
	Calendar      CalendarConfig      `yaml:"calendar"`
	Controls      ControlsConfig      `yaml:"controls"`
	Logging       LoggingConfig       `yaml:"logging"`
	Server        ServerConfig        `yaml:"server"`
	Updates       UpdatesConfig       `yaml:"updates"`
}

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version: 1,
		Polling: DefaultPollingTable(),
		Notifications: NotificationsConfig{
			Gap:            300 * time.Millisecond,
			DefaultDismiss: 4 * time.Second,
			BatteryLow:     true,
			Bluetooth:      true,
		},
		Presentation: PresentationConfig{
			HoverExitDebounce: 400 * time.Millisecond,
		},
		Thresholds: ThresholdsConfig{
			BatteryLow: 20,
			CPUHigh:    90,
			MemoryHigh: 90,
		},
		Pomodoro: PomodoroConfig{
			Work:          25 * time.Minute,
			ShortBreak:    5 * time.Minute,
			LongBreak:     15 * time.Minute,
			LongBreakEach: 4,
		},
		Calendar: CalendarConfig{
			ImminentWindow: 10 * time.Minute,
			Lookahead:      24 * time.Hour,
			Google:         false,
			CalendarID:     "primary",
			CacheTTL:       5 * time.Minute,
		},
		Controls: ControlsConfig{
			VolumeStep:     0.05,
			BrightnessStep: 0.05,
			DefaultTimer:   5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Updates: UpdatesConfig{
			CheckOnStartup: true,
			CheckFrequency: "daily",
		},
	}
}
