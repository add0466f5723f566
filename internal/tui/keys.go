package tui

import "github.com/charmbracelet/bubbles/key"

// GlobalKeys are always active.
type GlobalKeys struct {
	Quit key.Binding
	Help key.Binding
	Esc  key.Binding
}

var globalKeys = GlobalKeys{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("?", "ctrl+h"),
		key.WithHelp("?", "help"),
	),
	Esc: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "close"),
	),
}

// ControlKeys drive the daemon.
type ControlKeys struct {
	PlayPause      key.Binding
	Next           key.Binding
	Previous       key.Binding
	VolumeUp       key.Binding
	VolumeDown     key.Binding
	BrightnessUp   key.Binding
	BrightnessDown key.Binding
	Focus          key.Binding
	StartTimer     key.Binding
	PauseTimer     key.Binding
	ResetTimer     key.Binding
	Pomodoro       key.Binding
	SkipPomodoro   key.Binding
	Dismiss        key.Binding
	Refresh        key.Binding
}

var controlKeys = ControlKeys{
	PlayPause: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("Space", "play/pause"),
	),
	Next: key.NewBinding(
		key.WithKeys("n", "right"),
		key.WithHelp("n/→", "next track"),
	),
	Previous: key.NewBinding(
		key.WithKeys("p", "left"),
		key.WithHelp("p/←", "previous track"),
	),
	VolumeUp: key.NewBinding(
		key.WithKeys("+", "=", "up"),
		key.WithHelp("+/↑", "volume up"),
	),
	VolumeDown: key.NewBinding(
		key.WithKeys("-", "down"),
		key.WithHelp("-/↓", "volume down"),
	),
	BrightnessUp: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "brightness up"),
	),
	BrightnessDown: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "brightness down"),
	),
	Focus: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "toggle focus"),
	),
	StartTimer: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "start timer"),
	),
	PauseTimer: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "pause/resume timer"),
	),
	ResetTimer: key.NewBinding(
		key.WithKeys("z"),
		key.WithHelp("z", "reset timer"),
	),
	Pomodoro: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "start/stop pomodoro"),
	),
	SkipPomodoro: key.NewBinding(
		key.WithKeys("O"),
		key.WithHelp("O", "skip interval"),
	),
	Dismiss: key.NewBinding(
		key.WithKeys("d", "x"),
		key.WithHelp("d", "dismiss notification"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "re-detect backends"),
	),
}
