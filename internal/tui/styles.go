package tui

import "github.com/charmbracelet/lipgloss"

// Colors using AdaptiveColor for light/dark terminal support.
var (
	colorWhite  = lipgloss.AdaptiveColor{Light: "0", Dark: "15"}
	colorDim    = lipgloss.AdaptiveColor{Light: "242", Dark: "240"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "28", Dark: "40"}
	colorRed    = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	colorYellow = lipgloss.AdaptiveColor{Light: "136", Dark: "220"}
	colorOrange = lipgloss.AdaptiveColor{Light: "166", Dark: "208"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "30", Dark: "45"}
)

// Layout styles.
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Background(lipgloss.AdaptiveColor{Light: "235", Dark: "236"})
)

// Panel styles.
var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)

	panelHoverStyle = panelStyle.
			BorderForeground(colorCyan)

	indicatorStyle = lipgloss.NewStyle().Foreground(colorWhite)
	warnStyle      = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(colorDim)

	providerLabelStyle = lipgloss.NewStyle().Foreground(colorDim)
	summaryStyle       = lipgloss.NewStyle().Foreground(colorWhite)
	activeMarkerStyle  = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)

	notificationTitleStyle = lipgloss.NewStyle().Foreground(colorOrange).Bold(true)

	barFillStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle = lipgloss.NewStyle().Foreground(colorDim)

	toggleOnStyle  = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	toggleOffStyle = lipgloss.NewStyle().Foreground(colorRed)
)

// State badge styles.
var (
	badgeIdleStyle     = lipgloss.NewStyle().Foreground(colorDim)
	badgeCompactStyle  = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	badgeExpandedStyle = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
)

// Overlay styles.
var (
	overlayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorWhite).
			Padding(1, 2)

	overlayTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorWhite).
				MarginBottom(1)

	overlayDimStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)

// Key hint styles for status bar.
var (
	keyStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	hintStyle = lipgloss.NewStyle().Foreground(colorDim)
)
