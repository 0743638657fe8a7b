package tui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/suggest"
)

// editor is the local input state of the active edit. The controller holds
// the edit target and the draft; editor only holds what is being typed.
type editor struct {
	row     bool
	id      string
	fields  []core.Field
	pos     int
	initial string
	text    textinput.Model
	// input is set for enumerated fields.
	input *suggest.Input
}

func newTextInput(value string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.SetValue(value)
	ti.CursorEnd()
	ti.Focus()
	return ti
}

func (e *editor) field() core.Field {
	return e.fields[e.pos]
}

// value is the text currently typed into the focused field.
func (e *editor) value() string {
	if e.input != nil {
		return e.input.Text()
	}
	return e.text.Value()
}

// setText replaces the typed text, for instance after a suggestion is picked.
func (e *editor) setText(v string) {
	e.text.SetValue(v)
	e.text.CursorEnd()
}

// handleKey feeds an unbound key to the text input. Dropdowns ignore typing;
// autocompletes refilter on every change.
func (e *editor) handleKey(msg tea.KeyMsg) {
	if e.input != nil && e.input.Mode() == suggest.ModeDropdown {
		return
	}
	before := e.text.Value()
	e.text, _ = e.text.Update(msg)
	if e.input != nil && e.text.Value() != before {
		e.input.Type(e.text.Value())
	}
}

func isEnum(f core.Field) bool {
	k := f.Kind()
	return k == core.KindEnumDropdown || k == core.KindEnumAutocomplete
}

// newInput builds the suggestion input for an enumerated field. Criticality
// is a closed dropdown; the other enums autocomplete over the taxonomy.
func (m *Model) newInput(f core.Field, value string, derive func() (string, bool), onSelect func(string)) *suggest.Input {
	lk := m.ctrl.Lookup()
	var options, pool []string
	switch f {
	case core.FieldCriticality:
		options = lk.CriticalityOptions()
	case core.FieldCategory:
		pool = lk.Categories()
	case core.FieldAccount:
		pool = lk.Accounts()
	case core.FieldPaymentMethod:
		pool = lk.PaymentMethods()
	}
	in := suggest.New(options, value, suggest.Config{
		Suggestions: pool,
		Max:         m.opts.SuggestionLimit,
		BlurDelay:   m.opts.BlurDelay,
		OnSelect:    onSelect,
		Derive:      derive,
	})
	in.Mount()
	in.Focus()
	return in
}

// openFieldEditor starts a single-field edit of the cursor cell.
func (m *Model) openFieldEditor(rec core.Transaction, f core.Field) {
	initial := core.FormatField(rec, f)
	m.ctrl.StartFieldEdit(rec.ID, f, initial)
	e := &editor{id: rec.ID, fields: []core.Field{f}, initial: initial, text: newTextInput(initial)}
	if isEnum(f) {
		e.input = m.newInput(f, initial, nil, nil)
	}
	m.editor = e
}

// openRowEditor attaches a row editor to the controller draft of id,
// focused on the cursor column.
func (m *Model) openRowEditor(id string) {
	m.editor = &editor{row: true, id: id, fields: core.Fields, pos: m.column}
	m.focusDraftField()
}

// focusDraftField loads the focused field from the draft. Values may have
// changed through derived defaults since the field was last focused.
func (m *Model) focusDraftField() {
	e := m.editor
	f := e.field()
	e.initial = m.snap.Draft.Value(f)
	e.text = newTextInput(e.initial)
	e.input = nil
	m.column = e.pos
	if !isEnum(f) {
		return
	}
	ctrl, logger := m.ctrl, m.logger
	e.input = m.newInput(f, e.initial, m.deriveFor(f), func(v string) {
		if err := ctrl.UpdateDraftField(f, v); err != nil {
			logger.Debug("Draft update dropped", log.FieldField, string(f), log.FieldError, err)
		}
	})
}

// deriveFor maps the draft fields a default of f depends on.
func (m *Model) deriveFor(f core.Field) func() (string, bool) {
	lk := m.ctrl.Lookup()
	draft := m.snap.Draft
	switch f {
	case core.FieldCriticality:
		return func() (string, bool) { return lk.CategoryToCriticality(draft.Value(core.FieldCategory)) }
	case core.FieldPaymentMethod:
		return func() (string, bool) { return lk.AccountToDefaultPaymentMethod(draft.Value(core.FieldAccount)) }
	default:
		return nil
	}
}

// commitDraftField pushes the focused field into the draft.
func (m *Model) commitDraftField() {
	e := m.editor
	f := e.field()
	switch {
	case e.input != nil:
		e.input.Key(suggest.KeyEnter)
		e.setText(e.input.Text())
	case f.Kind() == core.KindToggle:
	case e.text.Value() != e.initial:
		if err := m.ctrl.UpdateDraftField(f, e.text.Value()); err != nil {
			m.fail("edit", err)
			return
		}
		e.initial = e.text.Value()
	}
	m.refresh()
}

// toggleDraftCleared flips the cleared flag of the draft.
func (m *Model) toggleDraftCleared() {
	e := m.editor
	cleared, _ := strconv.ParseBool(e.text.Value())
	e.setText(strconv.FormatBool(!cleared))
	if err := m.ctrl.UpdateDraftField(core.FieldCleared, e.text.Value()); err != nil {
		m.fail("edit", err)
	}
	e.initial = e.text.Value()
	m.refresh()
}

// moveField commits the focused field and focuses the one delta away.
func (m *Model) moveField(delta int) {
	m.commitDraftField()
	e := m.editor
	if e == nil || !e.row {
		return
	}
	n := len(e.fields)
	e.pos = ((e.pos+delta)%n + n) % n
	m.focusDraftField()
}
