// Package period owns the currently selected statement period and notifies
// subscribers when it changes.
package period

import (
	"fmt"
	"sync"
	"time"

	"conti/internal/core"
	"conti/internal/ports"
)

// Selector implements ports.SelectionContext. A selection starts unsettled
// and becomes loaded once MarkLoaded or Set is called; consumers wait for
// that before fetching.
type Selector struct {
	mu     sync.Mutex
	cur    ports.Selection
	nextID int
	subs   map[int]func(ports.Selection)
}

// New returns an unsettled selector on period, or on the current month when
// period is empty.
func New(period string) (*Selector, error) {
	if period == "" {
		period = core.PeriodOf(time.Now())
	}
	if _, err := core.ParsePeriod(period); err != nil {
		return nil, fmt.Errorf("period %q: %w", period, err)
	}
	return &Selector{
		cur:  ports.Selection{Period: period},
		subs: map[int]func(ports.Selection){},
	}, nil
}

func (s *Selector) Current() ports.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Subscribe registers fn. Callbacks run synchronously on the goroutine that
// changed the selection.
func (s *Selector) Subscribe(fn func(ports.Selection)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Set selects period and settles the selection. Re-selecting the current,
// settled period is a no-op.
func (s *Selector) Set(period string) error {
	if _, err := core.ParsePeriod(period); err != nil {
		return fmt.Errorf("period %q: %w", period, err)
	}
	next := ports.Selection{Period: period, IsLoaded: true}
	s.mu.Lock()
	if s.cur == next {
		s.mu.Unlock()
		return nil
	}
	s.cur = next
	s.mu.Unlock()
	s.notify()
	return nil
}

// Shift moves the selection by n months.
func (s *Selector) Shift(n int) error {
	return s.Set(core.ShiftPeriod(s.Current().Period, n))
}

// MarkLoaded settles the initial selection.
func (s *Selector) MarkLoaded() {
	s.mu.Lock()
	if s.cur.IsLoaded {
		s.mu.Unlock()
		return
	}
	s.cur.IsLoaded = true
	s.mu.Unlock()
	s.notify()
}

func (s *Selector) notify() {
	s.mu.Lock()
	cur := s.cur
	fns := make([]func(ports.Selection), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(cur)
	}
}
