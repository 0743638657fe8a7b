package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"conti/internal/core"
)

type column struct {
	title string
	width int
	right bool
}

var columns = map[core.Field]column{
	core.FieldDate:          {"Date", 10, false},
	core.FieldName:          {"Name", 24, false},
	core.FieldAmount:        {"Amount", 11, true},
	core.FieldCategory:      {"Category", 14, false},
	core.FieldCriticality:   {"Criticality", 12, false},
	core.FieldAccount:       {"Account", 12, false},
	core.FieldPaymentMethod: {"Payment", 13, false},
	core.FieldCleared:       {"Clr", 3, false},
}

const markerWidth = 2

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(renderSummary(m.snap.Summary))
	b.WriteString("\n\n")
	b.WriteString(m.renderTable())
	if s := m.renderSuggestions(); s != "" {
		b.WriteString("\n")
		b.WriteString(s)
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(helpLine(m.scope()))
	return b.String()
}

func (m Model) scope() scope {
	switch {
	case m.prompt != nil:
		return scopePrompt
	case m.editor != nil:
		return scopeEdit
	default:
		return scopeGrid
	}
}

func (m Model) renderHeader() string {
	line := titleStyle.Render("conti") + "  " + periodStyle.Render(m.snap.Period)
	if m.snap.Loading {
		line += "  " + loadingStyle.Render("loading...")
	}
	if n := len(m.selected); n > 0 {
		line += "  " + selectedStyle.Render(fmt.Sprintf("%d selected", n))
	}
	return line
}

func renderSummary(s core.Summary) string {
	item := func(label, value string) string {
		return summaryLabelStyle.Render(label+" ") + summaryValueStyle.Render(value)
	}
	parts := []string{
		item("rows", fmt.Sprintf("%d/%d", s.Count-s.PendingCount, s.ServerTotal)),
		item("balance", s.Balance.StringFixed(2)),
		item("cleared", fmt.Sprintf("%s (%d)", s.ClearedBalance.StringFixed(2), s.ClearedCount)),
	}
	if s.PendingCount > 0 {
		parts = append(parts, item("unsaved", fmt.Sprint(s.PendingCount)))
	}
	line := strings.Join(parts, "   ")

	var accounts []string
	for _, a := range s.ByAccount {
		accounts = append(accounts, mutedStyle.Render(a.Name)+" "+amountStyle(a.Amount.Sign()).Render(a.Amount.StringFixed(2)))
	}
	if len(accounts) > 0 {
		line += "\n" + strings.Join(accounts, mutedStyle.Render(" · "))
	}
	return line
}

func amountStyle(sign int) lipgloss.Style {
	if sign < 0 {
		return debitStyle
	}
	return creditStyle
}

func (m Model) renderTable() string {
	header := strings.Repeat(" ", markerWidth)
	for i, f := range core.Fields {
		if i > 0 {
			header += " "
		}
		c := columns[f]
		header += fit(c.title, c.width, c.right)
	}
	lines := []string{tableHeaderStyle.Render(header)}

	if len(m.snap.Rows) == 0 {
		empty := "No transactions for this period. Press a to add one or u to upload a CSV."
		if m.snap.LoadErr != nil {
			empty = "Could not load transactions."
		}
		lines = append(lines, mutedStyle.Render(empty))
		return strings.Join(lines, "\n")
	}

	visible := m.visibleRows()
	end := min(m.top+visible, len(m.snap.Rows))
	for i := m.top; i < end; i++ {
		lines = append(lines, m.renderRow(i))
	}
	if len(m.snap.Rows) > visible {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("%d-%d of %d", m.top+1, end, len(m.snap.Rows))))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(i int) string {
	rec := m.snap.Rows[i]
	isCursor := i == m.cursor
	editing := m.editor != nil && m.editor.id == rec.ID

	var cells []string
	cells = append(cells, m.marker(rec))
	for col, f := range core.Fields {
		c := columns[f]
		text := core.FormatField(rec, f)
		if editing && m.editor.row {
			text = m.snap.Draft.Value(f)
		}
		if f == core.FieldCleared {
			text = clearedMark(text)
		}

		switch {
		case editing && m.editor.field() == f:
			value := m.editor.value()
			if f == core.FieldCleared {
				value = clearedMark(value)
			}
			cells = append(cells, editCellStyle.Render(fit(value+"▏", c.width, false)))
		case isCursor && col == m.column && m.editor == nil:
			cells = append(cells, focusCellStyle.Render(fit(text, c.width, c.right)))
		case f == core.FieldAmount:
			cells = append(cells, amountStyle(rec.Amount.Sign()).Render(fit(text, c.width, c.right)))
		case rec.Pending && f == core.FieldName:
			cells = append(cells, pendingStyle.Render(fit(text, c.width, c.right)))
		default:
			cells = append(cells, fit(text, c.width, c.right))
		}
	}

	line := cells[0] + strings.Join(cells[1:], " ")
	switch {
	case editing && m.editor.row:
		return draftRowStyle.Render(line)
	case isCursor:
		return cursorRowStyle.Render(line)
	default:
		return line
	}
}

// marker flags saving, failed, selected and unsaved rows, in that order.
func (m Model) marker(rec core.Transaction) string {
	switch {
	case m.snap.IsSaving(rec.ID):
		return savingStyle.Render(fit("~", markerWidth, false))
	case m.snap.Errors[rec.ID] != "":
		return rowErrorStyle.Render(fit("!", markerWidth, false))
	case m.selected[rec.ID]:
		return selectedStyle.Render(fit("●", markerWidth, false))
	case rec.Pending:
		return pendingStyle.Render(fit("+", markerWidth, false))
	default:
		return strings.Repeat(" ", markerWidth)
	}
}

func clearedMark(v string) string {
	if v == "true" {
		return "✓"
	}
	return ""
}

func (m Model) renderSuggestions() string {
	if m.editor == nil || m.editor.input == nil {
		return ""
	}
	items := m.editor.input.Suggestions()
	if len(items) == 0 {
		return ""
	}
	hl := m.editor.input.Highlight()
	lines := make([]string, len(items))
	for i, s := range items {
		if i == hl {
			lines[i] = suggestActiveStyle.Render("> " + s)
		} else {
			lines[i] = "  " + s
		}
	}
	return suggestBoxStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderStatus() string {
	if m.prompt != nil {
		return statusStyle.Render("Upload CSV: " + m.prompt.input.Value() + "▏")
	}
	if m.snap.LoadErr != nil {
		return statusErrStyle.Render("Load failed: " + m.snap.LoadErr.Error())
	}
	if rec, ok := m.current(); ok {
		if msg := m.snap.Errors[rec.ID]; msg != "" {
			return rowErrorStyle.Render(msg)
		}
	}
	if m.statusErr {
		return statusErrStyle.Render(m.status)
	}
	return statusStyle.Render(m.status)
}

// fit truncates or pads s to exactly w cells.
func fit(s string, w int, right bool) string {
	if lipgloss.Width(s) > w {
		r := []rune(s)
		for len(r) > 0 && lipgloss.Width(string(r))+1 > w {
			r = r[:len(r)-1]
		}
		s = string(r) + "…"
	}
	pad := strings.Repeat(" ", max(w-lipgloss.Width(s), 0))
	if right {
		return pad + s
	}
	return s + pad
}
