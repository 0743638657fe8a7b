package grid

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"conti/internal/core"
	"conti/internal/ports"
)

// fakeRepo is an in-memory repository that records every call.
type fakeRepo struct {
	mu      sync.Mutex
	rows    []core.Transaction
	nextID  int
	lists   []ports.ListFilter
	creates []core.Transaction
	updates []core.Transaction
	deletes []string
	uploads []string

	listErr   error
	createErr error
	updateErr error
	deleteErr map[string]error

	// hooks run before the call touches state; they may block.
	listHook   func(f ports.ListFilter)
	createHook func(t core.Transaction) // runs after the record is stored
	updateHook func(id string)
	deleteHook func(id string)
}

func (r *fakeRepo) List(ctx context.Context, f ports.ListFilter) (core.Page, error) {
	if r.listHook != nil {
		r.listHook(f)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists = append(r.lists, f)
	if r.listErr != nil {
		return core.Page{}, r.listErr
	}
	var out []core.Transaction
	for _, t := range r.rows {
		if core.InPeriod(t.TransactionDate, f.Period) {
			out = append(out, t)
		}
	}
	return core.Page{Records: out, Total: len(out), Count: len(out)}, nil
}

func (r *fakeRepo) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates = append(r.creates, t)
	if r.createErr != nil {
		return core.Transaction{}, r.createErr
	}
	r.nextID++
	t.ID = fmt.Sprintf("srv-%d", r.nextID)
	r.rows = append(r.rows, t)
	hook := r.createHook
	r.mu.Unlock()
	if hook != nil {
		hook(t)
	}
	r.mu.Lock()
	return t, nil
}

func (r *fakeRepo) Update(ctx context.Context, id string, t core.Transaction) error {
	if r.updateHook != nil {
		r.updateHook(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, t)
	if r.updateErr != nil {
		return r.updateErr
	}
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows[i] = t
			return nil
		}
	}
	return ErrNotFound
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	if r.deleteHook != nil {
		r.deleteHook(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes = append(r.deletes, id)
	if err := r.deleteErr[id]; err != nil {
		return err
	}
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeRepo) Upload(ctx context.Context, rd io.Reader, period string) error {
	data, err := io.ReadAll(rd)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploads = append(r.uploads, period+":"+string(data))
	return nil
}

func (r *fakeRepo) stored() []core.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Transaction(nil), r.rows...)
}

func (r *fakeRepo) counts() (lists, creates, updates, deletes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lists), len(r.creates), len(r.updates), len(r.deletes)
}

// fakeLookup maps Groceries to Essential and Checking to Debit Card.
type fakeLookup struct{}

func (fakeLookup) Categories() []string { return []string{"Groceries", "Dining", "Salary"} }
func (fakeLookup) Accounts() []string   { return []string{"Checking", "Wallet"} }
func (fakeLookup) PaymentMethods() []string {
	return []string{"Debit Card", "Cash"}
}
func (fakeLookup) CriticalityOptions() []string {
	return []string{"Essential", "Nonessential"}
}

func (fakeLookup) CategoryToCriticality(category string) (string, bool) {
	switch strings.ToLower(category) {
	case "groceries":
		return "Essential", true
	case "dining":
		return "Nonessential", true
	}
	return "", false
}

func (fakeLookup) AccountToDefaultPaymentMethod(account string) (string, bool) {
	switch strings.ToLower(account) {
	case "checking":
		return "Debit Card", true
	case "wallet":
		return "Cash", true
	}
	return "", false
}

// fakeSelection is a manually driven SelectionContext.
type fakeSelection struct {
	cur ports.Selection
	fns []func(ports.Selection)
}

func (s *fakeSelection) Current() ports.Selection { return s.cur }

func (s *fakeSelection) Subscribe(fn func(ports.Selection)) func() {
	s.fns = append(s.fns, fn)
	return func() { s.fns = nil }
}

func (s *fakeSelection) set(sel ports.Selection) {
	s.cur = sel
	for _, fn := range s.fns {
		fn(sel)
	}
}

const testPeriod = "2024-05"

func may(day int) time.Time {
	return time.Date(2024, 5, day, 0, 0, 0, 0, time.UTC)
}

func serverRow(id, name, amount string, day int) core.Transaction {
	return core.Transaction{
		ID:              id,
		Name:            name,
		Amount:          decimal.RequireFromString(amount),
		Category:        "Dining",
		Criticality:     "Nonessential",
		TransactionDate: may(day),
		Account:         "Checking",
		PaymentMethod:   "Debit Card",
	}
}

// newLoaded returns a controller with the given server rows loaded for testPeriod.
func newLoaded(t *testing.T, rows ...core.Transaction) (*Controller, *fakeRepo) {
	t.Helper()
	repo := &fakeRepo{rows: rows}
	c := New(repo, fakeLookup{}, nil, Options{
		Now: func() time.Time { return may(10).Add(15 * time.Hour) },
	})
	if err := c.SetPeriod(context.Background(), testPeriod); err != nil {
		t.Fatalf("set period: %v", err)
	}
	return c, repo
}

func rowByID(s Snapshot, id string) (core.Transaction, bool) {
	for _, r := range s.Rows {
		if r.ID == id {
			return r, true
		}
	}
	return core.Transaction{}, false
}
