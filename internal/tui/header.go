package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/glance-io/glance/internal/models"
)

func renderHeader(d models.Display, connected bool, width int) string {
	dot := lipgloss.NewStyle().Foreground(colorCyan).Render("●")
	name := lipgloss.NewStyle().Bold(true).Render("Glance")

	left := fmt.Sprintf(" %s %s", dot, name)
	right := renderStateBadge(d, connected) + " "

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return headerStyle.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

func renderStateBadge(d models.Display, connected bool) string {
	if !connected {
		return badgeIdleStyle.Render("○ offline")
	}
	switch d.State {
	case models.StateExpanded:
		return badgeExpandedStyle.Render("◆ expanded")
	case models.StateCompact:
		return badgeCompactStyle.Render("● compact")
	}
	return badgeIdleStyle.Render("○ idle")
}
