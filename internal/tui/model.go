// Package tui is the terminal front-end of the transaction grid. It renders
// controller snapshots and maps keys onto controller and suggestion input
// operations; every piece of grid state lives in the controller.
package tui

import (
	"context"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"conti/internal/grid"
	"conti/internal/log"
	"conti/internal/ports"
	"conti/internal/suggest"
)

const defaultVisibleRows = 20

// PeriodSelector is the statement period the grid follows.
type PeriodSelector interface {
	Current() ports.Selection
	Shift(n int) error
}

// Options tune the front-end. The zero value is usable.
type Options struct {
	Logger          *log.Logger
	SuggestionLimit int
	BlurDelay       time.Duration
	// Open reads an upload file. Defaults to os.Open.
	Open func(path string) (io.ReadCloser, error)
}

type (
	// refreshMsg asks the model to re-read the controller snapshot.
	refreshMsg struct{}

	// resultMsg carries the outcome of a controller call run as a command.
	resultMsg struct {
		op  string
		err error
	}
)

// Notifier coalesces controller change notifications into refresh messages.
// Notify never blocks, so it is safe as grid.Options.OnChange even when the
// change is made from inside Update.
type Notifier struct {
	ch chan struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan struct{}, 1)}
}

func (n *Notifier) Notify() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

func (n *Notifier) wait(ctx context.Context) tea.Cmd {
	if n == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-n.ch:
			return refreshMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

// Model is the bubbletea model of the grid screen.
type Model struct {
	ctx      context.Context
	ctrl     *grid.Controller
	sel      PeriodSelector
	notifier *Notifier
	logger   *log.Logger
	opts     Options

	snap     grid.Snapshot
	cursor   int
	column   int
	top      int
	width    int
	height   int
	selected map[string]bool

	editor *editor
	prompt *prompt

	status    string
	statusErr bool
}

// New builds the model. notifier may be nil when the caller refreshes by
// other means, as tests do.
func New(ctx context.Context, ctrl *grid.Controller, sel PeriodSelector, notifier *Notifier, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Open == nil {
		opts.Open = func(path string) (io.ReadCloser, error) { return os.Open(path) }
	}
	m := Model{
		ctx:      ctx,
		ctrl:     ctrl,
		sel:      sel,
		notifier: notifier,
		logger:   opts.Logger.WithComponent(log.ComponentTUI),
		opts:     opts,
		selected: map[string]bool{},
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.notifier.wait(m.ctx)
}

// run executes fn off the event loop and reports its outcome as a resultMsg.
func (m Model) run(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return resultMsg{op: op, err: fn(ctx)}
	}
}

// refresh re-reads the controller and brings the local editor in line with
// its edit target.
func (m *Model) refresh() {
	m.snap = m.ctrl.Snapshot()

	if n := len(m.snap.Rows); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	if m.top > m.cursor {
		m.top = m.cursor
	}
	for id := range m.selected {
		if _, ok := m.rowIndex(id); !ok {
			delete(m.selected, id)
		}
	}

	target := m.snap.Target
	switch target.Mode {
	case grid.EditNone:
		m.editor = nil
	case grid.EditRow:
		if m.editor == nil || !m.editor.row || m.editor.id != target.ID {
			if i, ok := m.rowIndex(target.ID); ok {
				m.cursor = i
				m.scrollTo(m.visibleRows())
			}
			m.openRowEditor(target.ID)
		}
	case grid.EditField:
		if m.editor != nil && (m.editor.row || m.editor.id != target.ID) {
			m.editor = nil
		}
	}
}

func (m *Model) rowIndex(id string) (int, bool) {
	for i, r := range m.snap.Rows {
		if r.ID == id {
			return i, true
		}
	}
	return 0, false
}

func (m *Model) setStatus(text string) {
	m.status = text
	m.statusErr = false
}

func (m *Model) fail(op string, err error) {
	m.status = op + ": " + err.Error()
	m.statusErr = true
	m.logger.Debug("Operation failed", log.FieldOperation, op, log.FieldError, err)
}

func (m *Model) report(msg resultMsg) {
	if msg.err != nil {
		m.fail(msg.op, msg.err)
		return
	}
	switch msg.op {
	case log.OpSave:
		m.setStatus("Saved.")
	case log.OpDelete:
		m.setStatus("Deleted.")
	case log.OpUpload:
		m.setStatus("Upload complete.")
	case log.OpRefetch:
		m.setStatus("Reloaded.")
	case log.OpToggle:
		m.setStatus("")
	}
}

func (m Model) visibleRows() int {
	if m.height <= 0 {
		return defaultVisibleRows
	}
	// header, summary lines, table header, status and help
	v := m.height - 9
	if m.editor != nil && m.editor.input != nil {
		v -= m.opts.suggestionLimit() + 2
	}
	return max(v, 1)
}

func (m *Model) scrollTo(visible int) {
	if m.cursor < m.top {
		m.top = m.cursor
	}
	if m.cursor >= m.top+visible {
		m.top = m.cursor - visible + 1
	}
}

func (o Options) suggestionLimit() int {
	if o.SuggestionLimit <= 0 {
		return suggest.DefaultMax
	}
	return o.SuggestionLimit
}
