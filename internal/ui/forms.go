package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/wayfinder/internal/waypoint"
)

type formMode int

const (
	formAdd formMode = iota
	formEdit
)

type formSubmitMsg struct {
	mode  formMode
	draft waypoint.Record
}

type confirmDeleteMsg struct {
	rec waypoint.Record
}

type importSourceMsg struct {
	source string
}

const (
	fieldTitle = iota
	fieldX
	fieldY
	fieldZ
	fieldIcon
	fieldColor
	fieldPinned
	fieldCount
)

var fieldLabels = [fieldCount]string{"Title", "X", "Y", "Z", "Icon", "Color", "Pinned"}

// formModal edits a waypoint draft.
type formModal struct {
	mode   formMode
	base   waypoint.Record
	inputs [fieldCount]textinput.Model
	focus  int
	err    string
}

func newFormModal(mode formMode, rec waypoint.Record) *formModal {
	f := &formModal{mode: mode, base: rec}
	values := [fieldCount]string{
		rec.Title,
		formatCoord(rec.X),
		formatCoord(rec.Y),
		formatCoord(rec.Z),
		rec.Icon,
		rec.Color,
		strconv.FormatBool(rec.Pinned),
	}
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 64
		in.SetValue(values[i])
		f.inputs[i] = in
	}
	f.inputs[fieldTitle].Focus()
	return f
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// draft parses the inputs into a record.
func (f *formModal) draft() (waypoint.Record, error) {
	rec := f.base
	rec.Title = strings.TrimSpace(f.inputs[fieldTitle].Value())

	coords := []*float64{&rec.X, &rec.Y, &rec.Z}
	for i, dst := range coords {
		raw := strings.TrimSpace(f.inputs[fieldX+i].Value())
		if raw == "" {
			*dst = 0
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return waypoint.Record{}, fmt.Errorf("%s: not a number", fieldLabels[fieldX+i])
		}
		*dst = v
	}

	rec.Icon = strings.TrimSpace(f.inputs[fieldIcon].Value())
	rec.Color = strings.TrimSpace(f.inputs[fieldColor].Value())

	pinned, err := parseYesNo(f.inputs[fieldPinned].Value())
	if err != nil {
		return waypoint.Record{}, err
	}
	rec.Pinned = pinned

	if err := rec.Validate(); err != nil {
		return waypoint.Record{}, err
	}
	return rec, nil
}

func parseYesNo(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "n", "no", "false", "0":
		return false, nil
	case "y", "yes", "true", "1":
		return true, nil
	}
	return false, fmt.Errorf("pinned: want yes or no")
}

func (f *formModal) setFocus(i int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (i + fieldCount) % fieldCount
	return f.inputs[f.focus].Focus()
}

// Update implements Modal.
func (f *formModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Escape):
			return f, nil, true
		case key.Matches(km, keys.Confirm):
			rec, err := f.draft()
			if err != nil {
				f.err = err.Error()
				return f, nil, false
			}
			mode := f.mode
			return f, func() tea.Msg { return formSubmitMsg{mode: mode, draft: rec} }, true
		case key.Matches(km, keys.NextField):
			return f, f.setFocus(f.focus + 1), false
		case key.Matches(km, keys.PrevField):
			return f, f.setFocus(f.focus - 1), false
		}
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd, false
}

// View implements Modal.
func (f *formModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	title := "New waypoint"
	if f.mode == formEdit {
		title = fmt.Sprintf("Edit waypoint #%d", f.base.ID)
	}

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(title))
	b.WriteString("\n\n")
	for i, in := range f.inputs {
		label := styles.Label.Width(8).Render(fieldLabels[i])
		if i == f.focus {
			label = styles.Key.Bold(true).Width(8).Render(fieldLabels[i])
		}
		b.WriteString(label)
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.Failed.Render(f.err))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.Hint.Render("tab next  enter save  esc cancel"))

	return placeModal(theme, width, height, 48, b.String())
}

// confirmModal asks before deleting a waypoint.
type confirmModal struct {
	rec waypoint.Record
}

func newConfirmModal(rec waypoint.Record) *confirmModal {
	return &confirmModal{rec: rec}
}

// Update implements Modal.
func (c *confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch km.String() {
	case "y", "Y":
		rec := c.rec
		return c, func() tea.Msg { return confirmDeleteMsg{rec: rec} }, true
	case "n", "N", "esc":
		return c, nil, true
	}
	return c, nil, false
}

// View implements Modal.
func (c *confirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	body := styles.Text.Render(fmt.Sprintf("Delete %q?", c.rec.Title)) + "\n\n" +
		styles.Hint.Render("y delete  n cancel")
	return placeModal(theme, width, height, 40, body)
}

// promptModal asks for a single line of text.
type promptModal struct {
	label string
	input textinput.Model
}

func newPromptModal(label, value string) *promptModal {
	in := textinput.New()
	in.Prompt = "> "
	in.CharLimit = 256
	in.SetValue(value)
	in.Focus()
	return &promptModal{label: label, input: in}
}

// Update implements Modal.
func (p *promptModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Escape):
			return p, nil, true
		case key.Matches(km, keys.Confirm):
			source := p.input.Value()
			return p, func() tea.Msg { return importSourceMsg{source: source} }, true
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd, false
}

// View implements Modal.
func (p *promptModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	body := styles.Text.Bold(true).Render(p.label) + "\n\n" +
		p.input.View() + "\n\n" +
		styles.Hint.Render("enter confirm  esc cancel")
	return placeModal(theme, width, height, 60, body)
}
