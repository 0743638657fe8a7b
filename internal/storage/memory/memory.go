package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"conti/internal/core"
	"conti/internal/importer"
	"conti/internal/ports"
)

// SeedFile is the CSV NewFromFiles loads from its base directory.
const SeedFile = "seed_transactions.csv"

// ErrNotFound is returned for unknown ids.
var ErrNotFound = errors.New("transaction not found")

// Store is an in-process ports.TransactionsRepository.
type Store struct {
	mu    sync.Mutex
	seq   int
	items []core.Transaction
}

func New(seed []core.Transaction) *Store {
	s := &Store{}
	for _, t := range seed {
		s.insertLocked(t)
	}
	return s
}

// NewFromFiles seeds the store from base/seed_transactions.csv. A missing
// file yields an empty store.
func NewFromFiles(base string) (*Store, error) {
	f, err := os.Open(filepath.Join(base, SeedFile))
	if errors.Is(err, os.ErrNotExist) {
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()

	seed, err := importer.ParseCSV(f, "")
	if err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", f.Name(), err)
	}
	return New(seed), nil
}

func (s *Store) insertLocked(t core.Transaction) core.Transaction {
	s.seq++
	t.ID = fmt.Sprintf("mem:%d", s.seq)
	t.Pending = false
	s.items = append(s.items, t)
	return t
}

func (s *Store) indexLocked(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// List returns matching rows, newest first.
func (s *Store) List(_ context.Context, f ports.ListFilter) (core.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	var matched []core.Transaction
	for _, t := range s.items {
		if !core.InPeriod(t.TransactionDate, f.Period) {
			continue
		}
		if f.Account != "" && t.Account != f.Account {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Name), search) &&
			!strings.Contains(strings.ToLower(t.Category), search) {
			continue
		}
		matched = append(matched, t)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].TransactionDate.After(matched[j].TransactionDate)
	})

	total := len(matched)
	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[f.Offset:]
		}
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return core.Page{Records: matched, Total: total, Count: len(matched)}, nil
}

// Create stores t under a synthetic id.
func (s *Store) Create(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(t), nil
}

func (s *Store) Update(_ context.Context, id string, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	t.ID = id
	t.Pending = false
	s.items[i] = t
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

// Upload imports a CSV into period. Nothing is stored when any line fails.
func (s *Store) Upload(_ context.Context, r io.Reader, period string) error {
	rows, err := importer.ParseCSV(r, period)
	if err != nil {
		return fmt.Errorf("parse upload: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range rows {
		s.insertLocked(t)
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
