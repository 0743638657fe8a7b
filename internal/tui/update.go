package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/suggest"
)

// prompt collects the path of a CSV file to upload.
type prompt struct {
	input textinput.Model
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.scrollTo(m.visibleRows())
		return m, nil
	case refreshMsg:
		m.refresh()
		return m, m.notifier.wait(m.ctx)
	case resultMsg:
		m.refresh()
		m.report(msg)
		return m, nil
	case tea.KeyMsg:
		switch {
		case m.prompt != nil:
			return m.updatePrompt(msg)
		case m.editor != nil:
			return m.updateEdit(msg)
		default:
			return m.updateGrid(msg)
		}
	}
	return m, nil
}

func (m Model) current() (core.Transaction, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Rows) {
		return core.Transaction{}, false
	}
	return m.snap.Rows[m.cursor], true
}

func (m *Model) moveCursor(delta int) {
	n := len(m.snap.Rows)
	if n == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), n-1)
	m.scrollTo(m.visibleRows())
}

func (m Model) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rec, ok := m.current()

	switch resolve(scopeGrid, msg) {
	case actionQuit:
		return m, tea.Quit
	case actionUp:
		m.moveCursor(-1)
	case actionDown:
		m.moveCursor(1)
	case actionLeft:
		m.column = max(m.column-1, 0)
	case actionRight:
		m.column = min(m.column+1, len(core.Fields)-1)
	case actionTop:
		m.moveCursor(-len(m.snap.Rows))
	case actionBottom:
		m.moveCursor(len(m.snap.Rows))
	case actionEditField:
		if !ok {
			return m, nil
		}
		f := core.Fields[m.column]
		if f.Kind() == core.KindToggle {
			return m, m.toggleCleared(rec.ID)
		}
		m.openFieldEditor(rec, f)
		m.refresh()
	case actionEditRow:
		if !ok {
			return m, nil
		}
		if err := m.ctrl.StartRowEdit(rec.ID); err != nil {
			m.fail("edit", err)
		}
		m.refresh()
	case actionAdd:
		m.ctrl.Add()
		m.cursor, m.top = 0, 0
		m.refresh()
	case actionSelect:
		if !ok {
			return m, nil
		}
		if m.selected[rec.ID] {
			delete(m.selected, rec.ID)
		} else {
			m.selected[rec.ID] = true
		}
		m.moveCursor(1)
	case actionDelete:
		ids := m.deleteTargets()
		if len(ids) == 0 {
			return m, nil
		}
		m.selected = map[string]bool{}
		m.setStatus(fmt.Sprintf("Deleting %d transaction(s)...", len(ids)))
		return m, m.run(log.OpDelete, func(ctx context.Context) error {
			return m.ctrl.DeleteSelected(ctx, ids)
		})
	case actionToggle:
		if ok {
			return m, m.toggleCleared(rec.ID)
		}
	case actionPrevPeriod:
		m.shiftPeriod(-1)
	case actionNextPeriod:
		m.shiftPeriod(1)
	case actionRefetch:
		return m, m.run(log.OpRefetch, m.ctrl.Refetch)
	case actionUpload:
		m.prompt = &prompt{input: newTextInput("")}
		m.setStatus("")
	}
	return m, nil
}

// deleteTargets is the selection, or the cursor row when nothing is selected.
func (m Model) deleteTargets() []string {
	var ids []string
	for _, r := range m.snap.Rows {
		if m.selected[r.ID] {
			ids = append(ids, r.ID)
		}
	}
	if len(ids) == 0 {
		if rec, ok := m.current(); ok {
			ids = append(ids, rec.ID)
		}
	}
	return ids
}

func (m Model) toggleCleared(id string) tea.Cmd {
	return m.run(log.OpToggle, func(ctx context.Context) error {
		return m.ctrl.ToggleCleared(ctx, id)
	})
}

func (m *Model) shiftPeriod(n int) {
	if err := m.sel.Shift(n); err != nil {
		m.fail("period", err)
		return
	}
	m.selected = map[string]bool{}
	m.cursor, m.top = 0, 0
	m.setStatus("")
	m.refresh()
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	e := m.editor

	switch act := resolve(scopeEdit, msg); act {
	case actionQuit:
		return m, tea.Quit
	case actionCancel:
		if e.input != nil && e.input.Open() {
			e.input.Key(suggest.KeyEscape)
			e.setText(e.input.Text())
			return m, nil
		}
		m.ctrl.Cancel()
		m.editor = nil
		m.refresh()
		return m, nil
	case actionUp:
		if e.input != nil {
			e.input.Key(suggest.KeyUp)
		}
		return m, nil
	case actionDown:
		if e.input != nil {
			e.input.Key(suggest.KeyDown)
		}
		return m, nil
	case actionNextField, actionPrevField:
		if e.row {
			delta := 1
			if act == actionPrevField {
				delta = -1
			}
			m.moveField(delta)
		}
		return m, nil
	case actionCommit, actionCommitNext:
		if !e.row {
			return m.commitField()
		}
		// Enter on a highlighted suggestion picks it without saving the row.
		if act == actionCommit && e.input != nil && e.input.Open() && e.input.Highlight() >= 0 {
			m.commitDraftField()
			return m, nil
		}
		m.commitDraftField()
		if m.editor == nil {
			return m, nil
		}
		addAnother := act == actionCommitNext
		return m, m.run(log.OpSave, func(ctx context.Context) error {
			return m.ctrl.SaveDraft(ctx, addAnother)
		})
	}

	if e.field().Kind() == core.KindToggle {
		if msg.Type == tea.KeySpace {
			m.toggleDraftCleared()
		}
		return m, nil
	}
	e.handleKey(msg)
	return m, nil
}

// commitField saves a single-field edit. An unchanged value just ends the edit.
func (m Model) commitField() (tea.Model, tea.Cmd) {
	e := m.editor
	f := e.field()
	value := e.text.Value()
	changed := value != e.initial
	if e.input != nil {
		changed = e.input.Key(suggest.KeyEnter)
		value = e.input.Text()
	}
	if !changed {
		m.ctrl.Cancel()
		m.editor = nil
		m.refresh()
		return m, nil
	}

	id := e.id
	m.editor = nil
	return m, m.run(log.OpSave, func(ctx context.Context) error {
		return m.ctrl.SaveField(ctx, id, f, value)
	})
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch resolve(scopePrompt, msg) {
	case actionQuit:
		return m, tea.Quit
	case actionCancel:
		m.prompt = nil
		return m, nil
	case actionCommit:
		path := strings.TrimSpace(m.prompt.input.Value())
		m.prompt = nil
		if path == "" {
			return m, nil
		}
		m.setStatus("Uploading " + path + "...")
		return m, m.run(log.OpUpload, func(ctx context.Context) error {
			return m.upload(ctx, path)
		})
	}

	m.prompt.input, _ = m.prompt.input.Update(msg)
	return m, nil
}

func (m Model) upload(ctx context.Context, path string) (err error) {
	f, err := m.opts.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return m.ctrl.Upload(ctx, f)
}
