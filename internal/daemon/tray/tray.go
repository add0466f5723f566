package tray

import (
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/getlantern/systray"
)

//go:embed icon.png
var iconData []byte

// quickTimer is the length of the timer started from the menu.
const quickTimer = 5 * time.Minute

var (
	state   DaemonState
	logger  *slog.Logger
	onStart func()
	onExit  func()

	statusItem       *systray.MenuItem
	notificationItem *systray.MenuItem
	playPauseItem    *systray.MenuItem
	nextItem         *systray.MenuItem
	previousItem     *systray.MenuItem
	volumeItem       *systray.MenuItem
	volumeUpItem     *systray.MenuItem
	volumeDownItem   *systray.MenuItem
	focusItem        *systray.MenuItem
	timerItem        *systray.MenuItem
	timerPauseItem   *systray.MenuItem
	pomodoroItem     *systray.MenuItem
	portItem         *systray.MenuItem
	quitItem         *systray.MenuItem

	current view
)

// Run starts the system tray. This blocks the calling goroutine (must be main).
// onStartFn is called when the tray is ready (launch gRPC server here).
// onExitFn is called when the tray exits (cleanup here).
func Run(s DaemonState, l *slog.Logger, onStartFn, onExitFn func()) {
	state = s
	logger = l.With("component", "tray")
	onStart = onStartFn
	onExit = onExitFn
	systray.Run(onReady, onQuit)
}

// Quit signals the tray to exit.
func Quit() {
	systray.Quit()
}

func onReady() {
	systray.SetTemplateIcon(iconData, iconData)
	systray.SetTooltip("Glance")

	header := systray.AddMenuItem("Glance", "")
	header.Disable()
	statusItem = systray.AddMenuItem("Starting...", "")
	statusItem.Disable()
	notificationItem = systray.AddMenuItem("", "Dismiss notification")
	notificationItem.Hide()

	systray.AddSeparator()

	playPauseItem = systray.AddMenuItem("Play", "Toggle playback")
	nextItem = systray.AddMenuItem("Next track", "")
	previousItem = systray.AddMenuItem("Previous track", "")

	systray.AddSeparator()

	volumeItem = systray.AddMenuItem("Volume unavailable", "")
	volumeItem.Disable()
	volumeUpItem = systray.AddMenuItem("Volume up", "")
	volumeDownItem = systray.AddMenuItem("Volume down", "")
	focusItem = systray.AddMenuItemCheckbox("Do not disturb", "Toggle focus mode", false)

	systray.AddSeparator()

	timerItem = systray.AddMenuItem(fmt.Sprintf("Start %s timer", formatMinutes(quickTimer)), "")
	timerPauseItem = systray.AddMenuItem("Pause timer", "")
	timerPauseItem.Hide()
	pomodoroItem = systray.AddMenuItem("Start pomodoro", "")

	systray.AddSeparator()

	portItem = systray.AddMenuItem("Starting...", "")
	portItem.Disable()
	quitItem = systray.AddMenuItem("Quit", "Shut down glance daemon")

	// Start the daemon services
	if onStart != nil {
		onStart()
	}

	if state != nil {
		portItem.SetTitle(fmt.Sprintf("Running on port: %d", state.Port()))
		apply(render(state.Display()))
		go follow()
	}

	// Handle click events
	go handleClicks()
}

func onQuit() {
	if onExit != nil {
		onExit()
	}
}

// follow re-renders the menu for every published payload.
func follow() {
	updates, cancel := state.Subscribe()
	defer cancel()
	for d := range updates {
		apply(render(d))
	}
}

func apply(v view) {
	current = v
	systray.SetTooltip(v.Tooltip)
	statusItem.SetTitle(v.Status)

	if v.Notification != "" {
		notificationItem.SetTitle(v.Notification)
		notificationItem.Show()
	} else {
		notificationItem.Hide()
	}

	playPauseItem.SetTitle(v.PlayPause)
	for _, item := range []*systray.MenuItem{playPauseItem, nextItem, previousItem} {
		if v.MediaEnabled {
			item.Enable()
		} else {
			item.Disable()
		}
	}

	volumeItem.SetTitle(v.Volume)
	for _, item := range []*systray.MenuItem{volumeUpItem, volumeDownItem} {
		if v.VolumeKnown {
			item.Enable()
		} else {
			item.Disable()
		}
	}

	if v.Focus {
		focusItem.Check()
	} else {
		focusItem.Uncheck()
	}

	if v.TimerActive {
		timerItem.SetTitle("Reset timer")
		timerPauseItem.Show()
	} else {
		timerItem.SetTitle(fmt.Sprintf("Start %s timer", formatMinutes(quickTimer)))
		timerPauseItem.Hide()
	}

	if v.Pomodoro {
		pomodoroItem.SetTitle("Stop pomodoro")
	} else {
		pomodoroItem.SetTitle("Start pomodoro")
	}
}

func handleClicks() {
	for {
		select {
		case <-notificationItem.ClickedCh:
			state.DismissNotification()
		case <-playPauseItem.ClickedCh:
			state.TogglePlayPause()
		case <-nextItem.ClickedCh:
			state.NextTrack()
		case <-previousItem.ClickedCh:
			state.PreviousTrack()
		case <-volumeUpItem.ClickedCh:
			state.VolumeUp()
		case <-volumeDownItem.ClickedCh:
			state.VolumeDown()
		case <-focusItem.ClickedCh:
			state.ToggleFocus()
		case <-timerItem.ClickedCh:
			if current.TimerActive {
				state.ResetTimer()
			} else {
				state.StartTimer(quickTimer)
			}
		case <-timerPauseItem.ClickedCh:
			state.PauseTimer()
		case <-pomodoroItem.ClickedCh:
			if current.Pomodoro {
				state.StopPomodoro()
			} else {
				state.StartPomodoro()
			}
		case <-quitItem.ClickedCh:
			logger.Info("quit requested from tray")
			state.RequestShutdown()
			return
		}
	}
}

func formatMinutes(d time.Duration) string {
	return fmt.Sprintf("%dm", int(d/time.Minute))
}
