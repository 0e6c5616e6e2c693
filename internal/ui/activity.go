package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderActivity renders the recent log lines below the header.
func (m Model) renderActivity() string {
	styles := m.theme.Styles()
	height := max(m.height-3, 1)

	var b strings.Builder
	title := styles.Key.Bold(true).Render("Activity")
	if m.logPath != "" {
		title += "  " + styles.Hint.Render(truncateMiddle(m.logPath, max(m.width-12, 10)))
	}
	b.WriteString(title)
	b.WriteString("\n")

	lines := m.activity
	if len(lines) > height-1 {
		lines = lines[len(lines)-(height-1):]
	}
	if len(lines) == 0 {
		b.WriteString(styles.Hint.Render("No activity yet. Press w to open the waypoint list."))
		return b.String()
	}

	for i, e := range lines {
		style := styles.Text
		switch strings.ToUpper(e.Level) {
		case "ERROR":
			style = styles.Failed
		case "WARN":
			style = styles.Lagging
		case "DEBUG":
			style = styles.Hint
		}
		b.WriteString(style.Render(truncate(e.Summary(), max(m.width, 20))))
		if i < len(lines)-1 {
			b.WriteString("\n")
		}
	}
	return lipgloss.NewStyle().Width(m.width).Render(b.String())
}
