package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is a named palette. Each color is named for what it paints.
type Theme struct {
	Name string

	Backdrop string // fill around modals
	Bar      string // header, command bar and list footer
	Cursor   string // cursor row in the waypoint list

	Text  string
	Label string // field labels and counters
	Hint  string // key help, timestamps, empty states
	Key   string // key bindings, world name, pinned rows, modal border
	Brand string // product name and help-screen keys

	Live    string // feed healthy
	Lagging string // feed stale or degraded, skipped entries
	Failed  string // feed offline, failed writes, form errors
}

// Styles are the lipgloss styles built from a Theme.
type Styles struct {
	Text  lipgloss.Style
	Label lipgloss.Style
	Hint  lipgloss.Style
	Key   lipgloss.Style
	Brand lipgloss.Style

	Live    lipgloss.Style
	Lagging lipgloss.Style
	Failed  lipgloss.Style

	Cursor lipgloss.Style
	Bar    lipgloss.Style
}

// Styles builds the lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	return Styles{
		Text:    fg(t.Text),
		Label:   fg(t.Label),
		Hint:    fg(t.Hint),
		Key:     fg(t.Key),
		Brand:   fg(t.Brand).Bold(true),
		Live:    fg(t.Live).Bold(true),
		Lagging: fg(t.Lagging),
		Failed:  fg(t.Failed).Bold(true),
		Cursor:  fg(t.Text).Background(lipgloss.Color(t.Cursor)),
		Bar:     fg(t.Label).Background(lipgloss.Color(t.Bar)).Padding(0, 1),
	}
}

var themes = map[string]Theme{
	"Nightfox": {
		// https://github.com/EdenEast/nightfox.nvim
		Name:     "Nightfox",
		Backdrop: "#131a24",
		Bar:      "#192330",
		Cursor:   "#2b3b51",
		Text:     "#cdcecf",
		Label:    "#738091",
		Hint:     "#71839b",
		Key:      "#719cd6",
		Brand:    "#dbc074",
		Live:     "#81b29a",
		Lagging:  "#dbc074",
		Failed:   "#c94f6d",
	},
	"Kanagawa": {
		// https://github.com/rebelot/kanagawa.nvim
		Name:     "Kanagawa",
		Backdrop: "#16161D",
		Bar:      "#1F1F28",
		Cursor:   "#2D4F67",
		Text:     "#DCD7BA",
		Label:    "#C8C093",
		Hint:     "#727169",
		Key:      "#7E9CD8",
		Brand:    "#E6C384",
		Live:     "#98BB6C",
		Lagging:  "#E6C384",
		Failed:   "#E46876",
	},
	"Slate": {
		// Tailwind slate with sky accents
		Name:     "Slate",
		Backdrop: "#020617",
		Bar:      "#0f172a",
		Cursor:   "#0284c7",
		Text:     "#f1f5f9",
		Label:    "#94a3b8",
		Hint:     "#64748b",
		Key:      "#38bdf8",
		Brand:    "#f59e0b",
		Live:     "#22c55e",
		Lagging:  "#f59e0b",
		Failed:   "#ef4444",
	},
}

var themeOrder = []string{"Nightfox", "Kanagawa", "Slate"}

// GetTheme returns a theme by name, falling back to Nightfox.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[themeOrder[0]]
}

// NextTheme returns the theme after current in the T cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return themeOrder
}
