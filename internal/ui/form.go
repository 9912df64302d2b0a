package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ldx/internal/app"
)

var fieldLabels = map[string]string{
	app.FieldUPC:      "UPC",
	app.FieldTitle:    "Title",
	app.FieldYear:     "Year",
	app.FieldDirector: "Director",
	app.FieldGenre:    "Genre",
	app.FieldFormat:   "Format",
	app.FieldSides:    "Sides",
	app.FieldRuntime:  "Runtime",
	app.FieldNotes:    "Notes",
}

// formModel holds one text input per editable field of the add/edit form.
type formModel struct {
	inputs []textinput.Model
	focus  int
}

func newFormModel() formModel {
	inputs := make([]textinput.Model, len(app.Fields))
	for i, name := range app.Fields {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = strings.ToLower(fieldLabels[name])
		in.CharLimit = 512
		in.Width = 48
		inputs[i] = in
	}
	return formModel{inputs: inputs}
}

// load copies v into the inputs and focuses the first one.
func (f *formModel) load(v app.FormValues) tea.Cmd {
	for i, name := range app.Fields {
		f.inputs[i].SetValue(v.Get(name))
	}
	return f.focusAt(0)
}

// values overlays the typed text on base, keeping fields the form does not edit.
func (f formModel) values(base app.FormValues) app.FormValues {
	for i, name := range app.Fields {
		_ = base.Set(name, f.inputs[i].Value())
	}
	return base
}

func (f *formModel) focusAt(i int) tea.Cmd {
	n := len(f.inputs)
	f.focus = ((i % n) + n) % n
	for j := range f.inputs {
		f.inputs[j].Blur()
	}
	return f.inputs[f.focus].Focus()
}

func (f *formModel) move(delta int) tea.Cmd {
	return f.focusAt(f.focus + delta)
}

func (f formModel) last() bool {
	return f.focus == len(f.inputs)-1
}

func (f *formModel) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f formModel) view() string {
	rows := make([]string, len(f.inputs))
	for i, name := range app.Fields {
		label := styles.label.Render(fieldLabels[name])
		if i == f.focus {
			label = styles.title.UnsetMarginBottom().Width(10).Render(fieldLabels[name])
		}
		rows[i] = label + " " + f.inputs[i].View()
	}
	return strings.Join(rows, "\n")
}
