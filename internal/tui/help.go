package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title string
	keys  []key.Binding
}

var helpSections = []helpSection{
	{
		title: "General",
		keys:  []key.Binding{globalKeys.Quit, globalKeys.Help, controlKeys.Refresh},
	},
	{
		title: "Media",
		keys:  []key.Binding{controlKeys.PlayPause, controlKeys.Next, controlKeys.Previous},
	},
	{
		title: "Levels",
		keys: []key.Binding{
			controlKeys.VolumeUp, controlKeys.VolumeDown,
			controlKeys.BrightnessUp, controlKeys.BrightnessDown,
			controlKeys.Focus,
		},
	},
	{
		title: "Timers",
		keys: []key.Binding{
			controlKeys.StartTimer, controlKeys.PauseTimer, controlKeys.ResetTimer,
			controlKeys.Pomodoro, controlKeys.SkipPomodoro,
		},
	},
	{
		title: "Notifications",
		keys:  []key.Binding{controlKeys.Dismiss},
	},
}

// renderHelp renders the help overlay content.
func renderHelp(width int) string {
	maxWidth := 60
	if width-4 < maxWidth {
		maxWidth = width - 4
	}
	if maxWidth < 30 {
		maxWidth = 30
	}

	title := overlayTitleStyle.Render("Keyboard Shortcuts")
	sections := make([]string, 0, len(helpSections)*4+3)
	sections = append(sections, title)

	for _, sec := range helpSections {
		header := lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Render(sec.title)
		sections = append(sections, "", header)

		for _, k := range sec.keys {
			h := k.Help()
			keyCol := lipgloss.NewStyle().
				Width(14).
				Foreground(colorWhite).
				Bold(true).
				Render(h.Key)
			descCol := lipgloss.NewStyle().
				Foreground(colorDim).
				Render(h.Desc)
			sections = append(sections, "  "+keyCol+descCol)
		}
	}

	sections = append(sections, "", lipgloss.NewStyle().Foreground(colorDim).Render("Hover the panel to expand it. Press Esc or ? to close"))

	content := strings.Join(sections, "\n")
	return overlayStyle.Width(maxWidth).Render(content)
}
