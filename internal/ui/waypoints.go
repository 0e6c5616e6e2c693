package ui

import (
	"fmt"
	"strings"

	"github.com/five82/wayfinder/internal/view"
)

// renderDialog renders the open waypoint selection dialog.
func (m Model) renderDialog() string {
	styles := m.theme.Styles()
	entries := m.dialog.Entries()

	var b strings.Builder
	if m.filtering {
		b.WriteString(m.filterInput.View())
		b.WriteString("\n")
	}

	// header, command bar, footer and optional filter line
	listHeight := max(m.height-4, 1)
	if m.filtering {
		listHeight = max(listHeight-1, 1)
	}

	if len(entries) == 0 {
		msg := "No waypoints."
		if m.dialog.Criteria().Filter != "" {
			msg = "No waypoints match the filter."
		}
		b.WriteString(styles.Hint.Render(msg))
		b.WriteString("\n")
	} else {
		start := scrollStart(m.cursor, len(entries), listHeight)
		end := min(start+listHeight, len(entries))
		for i := start; i < end; i++ {
			b.WriteString(m.renderEntry(entries[i], i == m.cursor))
			b.WriteString("\n")
		}
	}

	b.WriteString(m.renderDialogFooter())
	return b.String()
}

func (m Model) renderEntry(e view.Entry, cursor bool) string {
	styles := m.theme.Styles()

	mark := "[ ]"
	if m.dialog.IsSelected(e.ID) {
		mark = "[x]"
	}
	pin := " "
	if e.Pinned {
		pin = "*"
	}

	text := e.Title
	if m.width >= LayoutPositionWidth {
		text = e.DisplayText()
	}
	line := fmt.Sprintf("%s %s %4d  %s", mark, pin, e.ID, text)
	line = truncate(line, max(m.width-1, 10))

	switch {
	case cursor:
		return styles.Cursor.Width(m.width).Render(line)
	case m.dialog.IsSelected(e.ID):
		return styles.Key.Render(line)
	default:
		return styles.Text.Render(line)
	}
}

// renderDialogFooter shows the selected count, the last bulk outcome and
// any transient message.
func (m Model) renderDialogFooter() string {
	styles := m.theme.Styles()
	bg := newStrip(m.theme.Bar)

	parts := []string{
		bg.paint(fmt.Sprintf("%d selected", m.dialog.SelectedCount()), styles.Text),
		bg.paint(fmt.Sprintf("%d shown", len(m.dialog.Entries())), styles.Label),
	}

	if m.bulkReport != nil {
		report := m.bulkReport.report
		text := fmt.Sprintf("%s %d", m.bulkReport.action, report.Applied)
		parts = append(parts, bg.paint(text, styles.Label))
		if n := report.Failed(); n > 0 {
			parts = append(parts, bg.paint(fmt.Sprintf("%d failed", n), styles.Failed))
		}
	}

	if skipped := m.dialog.LastReport().Failed(); skipped > 0 {
		parts = append(parts, bg.paint(fmt.Sprintf("push: %d skipped", skipped), styles.Lagging))
	}

	if m.flash != "" {
		style := styles.Label
		if m.flashErr {
			style = styles.Failed
		}
		parts = append(parts, bg.paint(truncate(m.flash, max(m.width/2, 20)), style))
	}

	return styles.Bar.Width(m.width).Render(bg.join(parts, 2))
}

// scrollStart keeps the cursor inside a window of height rows.
func scrollStart(cursor, total, height int) int {
	if total <= height || cursor < height/2 {
		return 0
	}
	start := cursor - height/2
	if start+height > total {
		start = total - height
	}
	return start
}
