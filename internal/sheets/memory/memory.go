package memory

import (
	"context"
	"sync"

	"conti/internal/core"
	ports "conti/internal/sheets"
)

var _ ports.Mirror = (*Mirror)(nil)

// Mirror is an in-process sheets.Mirror. Removed rows stay blank so row
// positions never shift, like the spreadsheet it stands in for.
type Mirror struct {
	mu    sync.Mutex
	rows  []*core.Transaction
	index map[string]int
}

func New() *Mirror {
	return &Mirror{index: make(map[string]int)}
}

func (m *Mirror) Upsert(_ context.Context, t core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.Pending = false
	if i, ok := m.index[t.ID]; ok {
		m.rows[i] = &t
		return nil
	}
	m.rows = append(m.rows, &t)
	m.index[t.ID] = len(m.rows) - 1
	return nil
}

func (m *Mirror) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.index[id]; ok {
		m.rows[i] = nil
		delete(m.index, id)
	}
	return nil
}

func (m *Mirror) List(_ context.Context) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Transaction, 0, len(m.index))
	for _, r := range m.rows {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

// Rows reports how many rows were ever written, blanks included.
func (m *Mirror) Rows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
