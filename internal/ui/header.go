package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	if m.dialog != nil {
		b.WriteString(m.renderDialog())
	} else {
		b.WriteString(m.renderActivity())
	}
	return b.String()
}

// renderHeader renders the status bar with feed health and counts.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := newStrip(m.theme.Bar)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.paint("wayfinder", styles.Brand)}

	if m.world != "" {
		parts = append(parts, bg.paint(m.world, styles.Key))
	}

	parts = append(parts, m.feedIndicator(styles, bg))

	parts = append(parts,
		bg.paint("Waypoints:", styles.Label)+bg.gaps(1)+
			bg.paint(fmt.Sprintf("%d", len(m.snapshot.Records)), styles.Text))

	if pinned := m.countPinned(); pinned > 0 && !compact {
		parts = append(parts,
			bg.paint("Pinned:", styles.Label)+bg.gaps(1)+
				bg.paint(fmt.Sprintf("%d", pinned), styles.Text))
	}

	if ts := m.formatTimestamp(); ts != "" && !compact {
		parts = append(parts, bg.paint("Synced", styles.Hint)+bg.gaps(1)+bg.paint(ts, styles.Label))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Bar)).
		Width(m.width).
		Render(bg.join(parts, 2))
}

// feedIndicator shows whether pushes are arriving.
func (m Model) feedIndicator(styles Styles, bg strip) string {
	label := m.feedLabel
	if label == "" {
		label = "feed"
	}
	snap := m.snapshot
	switch {
	case snap.IsOffline():
		detail := classifyFeedError(snap.LastError)
		return bg.paint("● "+label+" "+detail, styles.Failed) + bg.gaps(1) +
			bg.paint("Retrying...", styles.Lagging.Bold(true))
	case snap.LastError != nil:
		return bg.paint("● "+label+" degraded", styles.Lagging)
	case snap.LastSync.IsZero():
		return bg.paint("● "+label+" waiting", styles.Label)
	case time.Since(snap.LastSync) > OfflineGrace:
		return bg.paint("● "+label+" stale", styles.Lagging)
	default:
		return bg.paint("● "+label, styles.Live)
	}
}

func (m Model) countPinned() int {
	n := 0
	for _, rec := range m.snapshot.Records {
		if rec.Pinned {
			n++
		}
	}
	return n
}

// formatTimestamp formats the last sync time with a relative indicator.
func (m Model) formatTimestamp() string {
	last := m.snapshot.LastSync
	if last.IsZero() {
		return ""
	}

	since := time.Since(last)
	ts := last.Format("15:04:05")
	switch {
	case since < time.Minute:
		ts += " (now)"
	case since < time.Hour:
		ts += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		ts += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return ts
}

// classifyFeedError returns a short description of the feed error.
func classifyFeedError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"):
		return "TIMEOUT"
	case strings.Contains(msg, "decode"):
		return "BAD DATA"
	default:
		return "ERROR"
	}
}

// strip paints segments onto a solid bar. lipgloss ends each styled run
// with a reset, so the spaces between words are painted as well.
type strip struct {
	bg  lipgloss.Color
	gap string
}

func newStrip(color string) strip {
	bg := lipgloss.Color(color)
	return strip{bg: bg, gap: lipgloss.NewStyle().Background(bg).Render(" ")}
}

func (s strip) paint(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	style = style.Background(s.bg)
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = style.Render(w)
		}
	}
	return strings.Join(words, s.gap)
}

func (s strip) gaps(n int) string {
	return strings.Repeat(s.gap, n)
}

func (s strip) join(parts []string, gap int) string {
	return strings.Join(parts, s.gaps(gap))
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	bg := newStrip(m.theme.Bar)

	type cmd struct{ key, desc string }
	var commands []cmd

	if m.dialog != nil {
		commands = []cmd{
			{"/", "Filter"},
			{"s", m.dialog.Criteria().Sort.String()},
			{"Space", "Select"},
			{"enter", "Recenter"},
			{"e/a/d", "Edit/Add/Del"},
			{"x", "Export"},
			{"i", "Import"},
			{"esc", "Close"},
			{"?", "More"},
		}
	} else {
		commands = []cmd{
			{"w", "Waypoints"},
			{"q", "Quit"},
			{"?", "More"},
		}
	}

	colon := bg.paint(":", lipgloss.NewStyle())
	sep := bg.gaps(2)

	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		segments = append(segments,
			bg.paint(c.key, styles.Key)+colon+bg.paint(c.desc, styles.Label))
	}

	if m.dialog != nil {
		if f := m.dialog.Criteria().Filter; f != "" && !m.filtering {
			segments = append(segments, bg.paint("/"+truncate(f, 18), styles.Key))
		}
	}

	segments = append(segments,
		bg.paint("T", styles.Key)+colon+bg.paint(m.theme.Name, styles.Hint))

	return styles.Bar.Width(m.width).Render(strings.Join(segments, sep))
}

// truncate truncates a string to max runes with ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// truncateMiddle truncates a string in the middle, preserving start and end.
func truncateMiddle(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	if max <= 5 {
		return s[:max]
	}
	// Keep more of the end (file name) than the start
	endLen := (max - 3) * 2 / 3
	startLen := max - 3 - endLen
	return s[:startLen] + "..." + s[len(s)-endLen:]
}
