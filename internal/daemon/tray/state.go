// Package tray implements the system tray icon and menu for the daemon.
// It is a rendering shell: it shows the display payload and forwards menu
// clicks as commands.
package tray

import (
	"time"

	"github.com/glance-io/glance/internal/models"
)

// DaemonState is what the tray reads and drives.
type DaemonState interface {
	Port() int
	Display() models.Display
	Subscribe() (<-chan models.Display, func())

	TogglePlayPause()
	NextTrack()
	PreviousTrack()
	VolumeUp()
	VolumeDown()
	ToggleFocus()
	StartTimer(d time.Duration)
	PauseTimer()
	ResetTimer()
	StartPomodoro()
	StopPomodoro()
	DismissNotification()
	RequestShutdown()
}
