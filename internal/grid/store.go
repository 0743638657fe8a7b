package grid

import "conti/internal/core"

// Store is the locally held, optimistically mutated list of records.
// It is not synchronized; the Controller guards it.
type Store struct {
	rows  []core.Transaction
	total int
}

func (s *Store) index(id string) int {
	for i := range s.rows {
		if s.rows[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) get(id string) (core.Transaction, bool) {
	if i := s.index(id); i >= 0 {
		return s.rows[i], true
	}
	return core.Transaction{}, false
}

// set replaces the record with the same id and reports whether it existed.
func (s *Store) set(t core.Transaction) bool {
	i := s.index(t.ID)
	if i < 0 {
		return false
	}
	s.rows[i] = t
	return true
}

// prepend puts a new row on top.
func (s *Store) prepend(t core.Transaction) {
	s.rows = append([]core.Transaction{t}, s.rows...)
}

// replaceID swaps the row stored under oldID for t, keeping its position.
// A copy of t already installed by a refetch is dropped so each id is held
// once, and total only grows when t is new to the store.
func (s *Store) replaceID(oldID string, t core.Transaction) bool {
	i := s.index(oldID)
	if i < 0 {
		return false
	}
	known := false
	if oldID != t.ID {
		if j := s.index(t.ID); j >= 0 {
			known = true
			s.rows = append(s.rows[:j], s.rows[j+1:]...)
			if j < i {
				i--
			}
		}
	}
	s.rows[i] = t
	if !t.Pending && !known {
		s.total++
	}
	return true
}

// remove drops the rows with the given ids. Persisted rows also leave the
// server total.
func (s *Store) remove(ids map[string]struct{}) {
	if len(ids) == 0 {
		return
	}
	kept := s.rows[:0]
	for _, r := range s.rows {
		if _, drop := ids[r.ID]; !drop {
			kept = append(kept, r)
		} else if !r.Pending && s.total > 0 {
			s.total--
		}
	}
	s.rows = kept
}

// reset installs a server page. Local pending rows survive on top.
func (s *Store) reset(p core.Page) {
	rows := make([]core.Transaction, 0, len(p.Records)+1)
	for _, r := range s.rows {
		if r.Pending {
			rows = append(rows, r)
		}
	}
	rows = append(rows, p.Records...)
	s.rows = rows
	s.total = p.Total
}

// dropServerRows keeps only pending rows.
func (s *Store) dropServerRows() {
	s.reset(core.Page{})
}

func (s *Store) clear() {
	s.rows = nil
	s.total = 0
}

func (s *Store) has(id string) bool {
	return s.index(id) >= 0
}

func (s *Store) snapshot() []core.Transaction {
	out := make([]core.Transaction, len(s.rows))
	copy(out, s.rows)
	return out
}

func (s *Store) summary() core.Summary {
	return core.Summarize(s.rows, s.total)
}
