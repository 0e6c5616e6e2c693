package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	if names[0] != "Nightfox" || names[1] != "Kanagawa" || names[2] != "Slate" {
		t.Fatalf("ThemeNames() = %v, want [Nightfox Kanagawa Slate]", names)
	}
}

func TestNextTheme(t *testing.T) {
	if got := NextTheme("Nightfox"); got != "Kanagawa" {
		t.Fatalf("NextTheme(Nightfox) = %q, want Kanagawa", got)
	}
	if got := NextTheme("Slate"); got != "Nightfox" {
		t.Fatalf("NextTheme(Slate) = %q, want Nightfox", got)
	}
	if got := NextTheme("Unknown"); got != "Nightfox" {
		t.Fatalf("NextTheme(Unknown) = %q, want Nightfox", got)
	}
}

func TestGetThemeFallsBack(t *testing.T) {
	if got := GetTheme("Dracula").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(Dracula).Name = %q, want Nightfox", got)
	}
}

func TestThemesDefineEveryColor(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		colors := map[string]string{
			"Backdrop": th.Backdrop, "Bar": th.Bar, "Cursor": th.Cursor,
			"Text": th.Text, "Label": th.Label, "Hint": th.Hint, "Key": th.Key, "Brand": th.Brand,
			"Live": th.Live, "Lagging": th.Lagging, "Failed": th.Failed,
		}
		for field, c := range colors {
			if c == "" {
				t.Fatalf("theme %s has no %s color", name, field)
			}
		}
	}
}

func TestStripPaintsGaps(t *testing.T) {
	s := newStrip("#192330")
	if got := s.paint("", lipgloss.NewStyle()); got != "" {
		t.Fatalf("paint(\"\") = %q, want empty", got)
	}
	got := ansi.Strip(s.paint("feed  waiting", lipgloss.NewStyle()))
	if got != "feed  waiting" {
		t.Fatalf("paint kept text %q, want %q", got, "feed  waiting")
	}
	if got := ansi.Strip(s.join([]string{"a", "b"}, 2)); got != "a  b" {
		t.Fatalf("join = %q, want %q", got, "a  b")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Forward Operating Base", 10); got != "Forward..." {
		t.Fatalf("truncate = %q, want %q", got, "Forward...")
	}
	if got := truncate("Base", 10); got != "Base" {
		t.Fatalf("truncate = %q, want %q", got, "Base")
	}
	if got := truncateMiddle("/home/user/.local/share/wayfinder/logs/wayfinder.log", 20); len(got) != 20 {
		t.Fatalf("truncateMiddle length = %d, want 20", len(got))
	}
}

func TestScrollStart(t *testing.T) {
	cases := []struct{ cursor, total, height, want int }{
		{0, 5, 10, 0},
		{3, 100, 10, 0},
		{50, 100, 10, 45},
		{99, 100, 10, 90},
	}
	for _, c := range cases {
		if got := scrollStart(c.cursor, c.total, c.height); got != c.want {
			t.Fatalf("scrollStart(%d,%d,%d) = %d, want %d", c.cursor, c.total, c.height, got, c.want)
		}
	}
}
