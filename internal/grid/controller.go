// Package grid is the editing and reconciliation engine behind the
// transaction grid. A Controller owns the local rows, the single active
// edit, the per-row saving and error state and the fetch guard, and is the
// only writer of any of them.
package grid

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/ports"
)

const defaultDeleteConcurrency = 4

// Options tune a Controller. The zero value is usable.
type Options struct {
	Logger *log.Logger
	// PageSize limits each list call. Zero lists the whole period.
	PageSize int
	// DeleteConcurrency bounds parallel deletes in DeleteSelected.
	DeleteConcurrency int
	// OnChange is called after every state change, outside the lock.
	OnChange func()
	// Go runs background fetches started by Watch. Defaults to a goroutine.
	Go func(fn func())
	// Now is the clock used for new rows.
	Now func() time.Time
}

// Controller is safe for concurrent use. Its lock is never held across
// repository calls, so saves for different rows run in parallel.
type Controller struct {
	repo   ports.TransactionsRepository
	lookup ports.ConfigLookup
	sel    ports.SelectionContext
	logger *log.Logger

	pageSize          int
	deleteConcurrency int
	onChange          func()
	goFn              func(fn func())
	now               func() time.Time

	mu      sync.Mutex
	store   Store
	guard   Guard
	target  EditTarget
	draft   *Draft
	saving  map[string]struct{}
	errors  map[string]string
	loading bool
	loadErr error
}

// Snapshot is an immutable view of the controller state for rendering.
type Snapshot struct {
	Period  string
	Rows    []core.Transaction
	Summary core.Summary
	Target  EditTarget
	Draft   *Draft
	Saving  map[string]bool
	Errors  map[string]string
	Loading bool
	LoadErr error
}

// IsSaving reports whether row id is being persisted.
func (s Snapshot) IsSaving(id string) bool {
	return s.Saving[id]
}

// New builds a controller. sel may be nil when the caller drives periods
// through SetPeriod.
func New(repo ports.TransactionsRepository, lookup ports.ConfigLookup, sel ports.SelectionContext, opts Options) *Controller {
	c := &Controller{
		repo:              repo,
		lookup:            lookup,
		sel:               sel,
		logger:            opts.Logger,
		pageSize:          opts.PageSize,
		deleteConcurrency: opts.DeleteConcurrency,
		onChange:          opts.OnChange,
		goFn:              opts.Go,
		now:               opts.Now,
		saving:            map[string]struct{}{},
		errors:            map[string]string{},
	}
	if c.logger == nil {
		c.logger = log.Discard()
	}
	c.logger = c.logger.WithComponent(log.ComponentGrid)
	if c.deleteConcurrency <= 0 {
		c.deleteConcurrency = defaultDeleteConcurrency
	}
	if c.goFn == nil {
		c.goFn = func(fn func()) { go fn() }
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Watch follows the selection context: every settled period change clears
// the rows and starts a fetch. The returned function stops watching.
func (c *Controller) Watch(ctx context.Context) func() {
	if c.sel == nil {
		return func() {}
	}
	unsubscribe := c.sel.Subscribe(func(s ports.Selection) { c.onSelection(ctx, s) })
	c.onSelection(ctx, c.sel.Current())
	return unsubscribe
}

func (c *Controller) onSelection(ctx context.Context, s ports.Selection) {
	if !s.IsLoaded {
		return
	}
	c.mu.Lock()
	same := c.guard.Started() && c.guard.Period() == s.Period
	c.mu.Unlock()
	if same {
		return
	}

	tok := c.beginPeriod(s.Period)
	c.goFn(func() {
		if err := c.load(ctx, tok); err != nil {
			c.logger.Warn("Initial load failed", log.FieldPeriod, s.Period, log.FieldError, err)
		}
	})
}

// SetPeriod clears the visible rows, then fetches period.
func (c *Controller) SetPeriod(ctx context.Context, period string) error {
	if period != "" {
		if _, err := core.ParsePeriod(period); err != nil {
			return fmt.Errorf("set period %q: %w", period, err)
		}
	}
	return c.load(ctx, c.beginPeriod(period))
}

func (c *Controller) beginPeriod(period string) Token {
	c.mu.Lock()
	c.store.clear()
	c.errors = map[string]string{}
	c.resetEditLocked()
	c.loading = true
	c.loadErr = nil
	tok := c.guard.Begin(period)
	c.mu.Unlock()
	c.notify()
	return tok
}

// Refetch reloads the current period, superseding any fetch in flight.
func (c *Controller) Refetch(ctx context.Context) error {
	c.mu.Lock()
	tok := c.guard.Begin(c.guard.Period())
	c.loading = true
	c.mu.Unlock()
	c.notify()
	return c.load(ctx, tok)
}

func (c *Controller) load(ctx context.Context, tok Token) error {
	page, err := c.repo.List(ctx, ports.ListFilter{Period: tok.Period(), Limit: c.pageSize})
	if err == nil {
		err = page.Validate()
	}

	c.mu.Lock()
	if !c.guard.Valid(tok) {
		c.mu.Unlock()
		c.logger.Debug("Discarding stale list result",
			log.NewFields().WithPeriod(tok.Period(), tok.Seq()).ToSlice()...)
		return nil
	}
	c.loading = false
	if err != nil {
		c.loadErr = err
		c.store.dropServerRows()
		c.mu.Unlock()
		c.notify()
		c.logger.LogError(ctx, "Failed to load transactions", err, log.OpList,
			log.NewFields().WithPeriod(tok.Period(), tok.Seq()))
		return fmt.Errorf("list transactions: %w", err)
	}
	c.loadErr = nil
	c.store.reset(page)
	for id := range c.errors {
		if !c.store.has(id) {
			delete(c.errors, id)
		}
	}
	if c.target.Active() && !c.store.has(c.target.ID) {
		c.resetEditLocked()
	}
	c.mu.Unlock()
	c.notify()

	c.logger.Debug("Transactions loaded",
		log.FieldPeriod, tok.Period(), log.FieldCount, page.Count, log.FieldTotal, page.Total)
	return nil
}

// Add inserts a pending row with defaults and opens a row edit on it.
func (c *Controller) Add() string {
	c.mu.Lock()
	id := c.addLocked()
	c.mu.Unlock()
	c.notify()
	return id
}

func (c *Controller) addLocked() string {
	rec := core.Transaction{
		ID:              core.NewPendingID(),
		Pending:         true,
		Amount:          decimal.Zero,
		TransactionDate: c.defaultDate(),
		Criticality:     DefaultCriticality(c.lookup),
	}
	if accounts := c.lookup.Accounts(); len(accounts) > 0 {
		rec.Account = accounts[0]
		if pm, ok := c.lookup.AccountToDefaultPaymentMethod(rec.Account); ok {
			rec.PaymentMethod = pm
		}
	}
	c.store.prepend(rec)
	// The row was just inserted, so the edit cannot fail.
	_ = c.startRowEditLocked(rec.ID)
	return rec.ID
}

// defaultDate is today, or the first day of the selected period when today
// falls outside it.
func (c *Controller) defaultDate() time.Time {
	now := c.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	period := c.guard.Period()
	if core.InPeriod(today, period) {
		return today
	}
	if p, err := core.ParsePeriod(period); err == nil {
		return p
	}
	return today
}

// Upload imports r into the current period and reloads it.
func (c *Controller) Upload(ctx context.Context, r io.Reader) error {
	c.mu.Lock()
	period := c.guard.Period()
	c.mu.Unlock()

	if err := c.repo.Upload(ctx, r, period); err != nil {
		c.logger.LogError(ctx, "Failed to upload transactions", err, log.OpUpload,
			log.NewFields().WithPeriod(period, 0))
		return fmt.Errorf("upload transactions: %w", err)
	}
	return c.Refetch(ctx)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Period:  c.guard.Period(),
		Rows:    c.store.snapshot(),
		Summary: c.store.summary(),
		Target:  c.target,
		Draft:   c.draft.clone(),
		Saving:  make(map[string]bool, len(c.saving)),
		Errors:  make(map[string]string, len(c.errors)),
		Loading: c.loading,
		LoadErr: c.loadErr,
	}
	for id := range c.saving {
		s.Saving[id] = true
	}
	for id, msg := range c.errors {
		s.Errors[id] = msg
	}
	return s
}

// Lookup exposes the taxonomy the controller derives defaults from.
func (c *Controller) Lookup() ports.ConfigLookup {
	return c.lookup
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}
