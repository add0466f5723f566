package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// renderOverlay draws content centered over a dimmed copy of base.
func renderOverlay(base, content string, width, height int) string {
	rows := strings.Split(base, "\n")
	for i, row := range rows {
		rows[i] = overlayDimStyle.Render(row)
	}

	lines := strings.Split(content, "\n")
	top := max((height-len(lines))/2, 1)
	left := max((width-lipgloss.Width(content))/2, 1)

	for i, line := range lines {
		if r := top + i; r < len(rows) {
			rows[r] = splice(rows[r], line, left)
		}
	}
	return strings.Join(rows, "\n")
}

// splice replaces the columns of row starting at col with line, keeping
// the styled cells on either side intact.
func splice(row, line string, col int) string {
	rowWidth := lipgloss.Width(row)
	head := ansi.Truncate(row, col, "")
	if pad := col - lipgloss.Width(head); pad > 0 {
		head += strings.Repeat(" ", pad)
	}
	tail := ""
	if end := col + lipgloss.Width(line); end < rowWidth {
		tail = ansi.Cut(row, end, rowWidth)
	}
	return head + "\033[0m" + line + "\033[0m" + tail
}
