package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/glance-io/glance/internal/daemon/provider"
	"github.com/glance-io/glance/internal/models"
)

const (
	panelMaxWidth = 64
	panelMinWidth = 24
	barWidth      = 20
)

// panelWidth is the outer width of the overlay panel for a terminal width.
func panelWidth(termWidth int) int {
	w := termWidth - 4
	if w > panelMaxWidth {
		w = panelMaxWidth
	}
	if w < panelMinWidth {
		w = panelMinWidth
	}
	return w
}

// renderPanel draws the overlay the way a desktop shell would for the
// payload's presentation state.
func renderPanel(d models.Display, width int) string {
	inner := width - panelStyle.GetHorizontalFrameSize()

	var body string
	switch d.State {
	case models.StateExpanded:
		body = renderExpanded(d, inner)
	case models.StateCompact:
		body = renderCompact(d)
	default:
		body = renderIdle(d)
	}

	style := panelStyle
	if d.Hovering {
		style = panelHoverStyle
	}
	return style.Width(width - style.GetHorizontalBorderSize()).Render(body)
}

func renderIdle(d models.Display) string {
	var parts []string
	for _, p := range d.Providers {
		for _, ind := range p.Indicators {
			parts = append(parts, renderIndicator(ind))
		}
	}
	if len(parts) == 0 {
		return dimStyle.Render("·")
	}
	return strings.Join(parts, "  ")
}

func renderIndicator(ind models.Indicator) string {
	text := ind.Kind
	if ind.Label != "" {
		text += " " + ind.Label
	}
	if ind.Warn {
		return warnStyle.Render(text)
	}
	return indicatorStyle.Render(text)
}

func renderCompact(d models.Display) string {
	if n := d.Notification; n != nil && d.CompactProviderID == provider.IDNotification {
		return notificationTitleStyle.Render(n.Title) + pendingBadge(n.Pending)
	}
	c, ok := d.Compact()
	if !ok {
		return renderIdle(d)
	}
	line := providerLabelStyle.Render(c.ID) + "  " + summaryStyle.Render(c.Summary)
	if c.Stale {
		line += dimStyle.Render(" (stale)")
	}
	return line
}

func renderExpanded(d models.Display, width int) string {
	var sections []string

	if n := d.Notification; n != nil {
		lines := []string{notificationTitleStyle.Render(n.Title) + pendingBadge(n.Pending)}
		if n.Body != "" {
			lines = append(lines, lipgloss.NewStyle().Width(width).Render(n.Body))
		}
		if n.Source != "" {
			lines = append(lines, dimStyle.Render("from "+n.Source))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	var rows []string
	for _, p := range d.Providers {
		if p.ID == provider.IDNotification || (!p.Active && p.Summary == "") {
			continue
		}
		marker := "  "
		if p.ID == d.CompactProviderID {
			marker = activeMarkerStyle.Render("▸ ")
		}
		row := marker + providerLabelStyle.Width(18).Render(p.ID) + summaryStyle.Render(p.Summary)
		if p.Stale {
			row += dimStyle.Render(" (stale)")
		}
		rows = append(rows, row)
	}
	if len(rows) > 0 {
		sections = append(sections, strings.Join(rows, "\n"))
	}

	controls := []string{
		renderLevel("volume", d.Controls.Volume),
		renderLevel("brightness", d.Controls.Brightness),
		renderToggle("focus", d.Controls.Focus),
	}
	sections = append(sections, strings.Join(controls, "\n"))

	return strings.Join(sections, "\n\n")
}

func renderLevel(label string, l models.Level) string {
	name := providerLabelStyle.Width(12).Render(label)
	if !l.Known {
		return name + dimStyle.Render("unavailable")
	}
	filled := int(math.Round(l.Value * barWidth))
	bar := barFillStyle.Render(strings.Repeat("█", filled)) + barEmptyStyle.Render(strings.Repeat("░", barWidth-filled))
	line := fmt.Sprintf("%s%s %3.0f%%", name, bar, l.Value*100)
	if l.Stale {
		line += dimStyle.Render(" stale")
	}
	if !l.Writable {
		line += dimStyle.Render(" read-only")
	}
	return line
}

func renderToggle(label string, on bool) string {
	name := providerLabelStyle.Width(12).Render(label)
	if on {
		return name + toggleOnStyle.Render("on")
	}
	return name + toggleOffStyle.Render("off")
}

func pendingBadge(n int) string {
	if n <= 0 {
		return ""
	}
	return dimStyle.Render(fmt.Sprintf("  +%d", n))
}
