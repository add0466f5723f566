package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/glance-io/glance/internal/models"
)

// Same palette as the live view.
var (
	colorWhite  = lipgloss.AdaptiveColor{Light: "0", Dark: "15"}
	colorDim    = lipgloss.AdaptiveColor{Light: "242", Dark: "240"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "28", Dark: "40"}
	colorRed    = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	colorYellow = lipgloss.AdaptiveColor{Light: "136", Dark: "220"}
	colorOrange = lipgloss.AdaptiveColor{Light: "166", Dark: "208"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "30", Dark: "45"}
	colorBlue   = lipgloss.AdaptiveColor{Light: "25", Dark: "75"}
)

var (
	styleBrand   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleVersion = lipgloss.NewStyle().Foreground(colorGreen)
	styleLabel   = lipgloss.NewStyle().Foreground(colorDim)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	styleError   = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	styleHint    = lipgloss.NewStyle().Foreground(colorDim)
	styleCommand = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	styleUpdate  = lipgloss.NewStyle().Bold(true).Foreground(colorOrange)
)

// Presentation states, dim when idle and loud when someone is hovering.
var stateStyles = map[string]lipgloss.Style{
	models.StateIdle:     styleHint,
	models.StateCompact:  lipgloss.NewStyle().Foreground(colorBlue),
	models.StateExpanded: lipgloss.NewStyle().Bold(true).Foreground(colorCyan),
}

func renderState(state string) string {
	if s, ok := stateStyles[state]; ok {
		return s.Render(state)
	}
	return styleValue.Render(state)
}

// renderFreshness labels a cached value the way status and capability
// listings show it.
func renderFreshness(known, stale bool) string {
	switch {
	case !known:
		return styleHint.Render("unknown")
	case stale:
		return styleWarning.Render("stale")
	}
	return styleSuccess.Render("fresh")
}
