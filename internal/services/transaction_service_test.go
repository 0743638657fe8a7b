package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/ports"
	"conti/internal/storage/memory"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []core.TransactionEvent
	err    error
	closed bool
}

func (p *fakePublisher) PublishTransactionEvent(_ context.Context, ev core.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

func newService(pub ports.EventPublisher) (*TransactionService, *memory.Store) {
	repo := memory.New(nil)
	s := NewTransactionService(repo, pub, log.Discard())
	s.now = func() time.Time { return time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC) }
	return s, repo
}

func pending(name string) core.Transaction {
	return core.Transaction{
		ID:              core.NewPendingID(),
		Pending:         true,
		Name:            name,
		Amount:          decimal.NewFromInt(-5),
		TransactionDate: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC),
	}
}

func TestTransactionServicePublishesEvents(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	s, _ := newService(pub)

	created, err := s.Create(ctx, pending("Coffee"))
	if err != nil {
		t.Fatal(err)
	}
	created.Name = "Tea"
	if err := s.Update(ctx, created.ID, created); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.Upload(ctx, strings.NewReader("2024-05-01,Rent,-900\n"), "2024-05"); err != nil {
		t.Fatal(err)
	}

	want := []struct {
		kind   core.EventKind
		period string
		record bool
	}{
		{core.EventCreated, "2024-05", true},
		{core.EventUpdated, "2024-05", true},
		{core.EventDeleted, "", false},
		{core.EventUploaded, "2024-05", false},
	}
	if len(pub.events) != len(want) {
		t.Fatalf("expected %d events, got %+v", len(want), pub.events)
	}
	for i, w := range want {
		ev := pub.events[i]
		if ev.Kind != w.kind || ev.Period != w.period || (ev.Record != nil) != w.record || ev.Timestamp.IsZero() {
			t.Errorf("event %d: got %+v", i, ev)
		}
	}
	if pub.events[1].Record.Name != "Tea" || pub.events[1].Record.ID != created.ID {
		t.Errorf("update event should carry the saved record, got %+v", pub.events[1].Record)
	}
}

func TestTransactionServicePublishFailureIsNotFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	s, repo := newService(pub)

	if _, err := s.Create(context.Background(), pending("Coffee")); err != nil {
		t.Fatalf("publish failure must not fail the write: %v", err)
	}
	page, _ := repo.List(context.Background(), ports.ListFilter{})
	if page.Total != 1 {
		t.Fatalf("record should be saved, total=%d", page.Total)
	}
}

func TestTransactionServiceRepositoryFailure(t *testing.T) {
	pub := &fakePublisher{}
	s, _ := newService(pub)

	if err := s.Delete(context.Background(), "missing"); !errors.Is(err, memory.ErrNotFound) {
		t.Fatalf("expected wrapped ErrNotFound, got %v", err)
	}
	if err := s.Upload(context.Background(), strings.NewReader("bad line\n"), "2024-05"); err == nil {
		t.Fatal("expected upload error")
	}
	if len(pub.events) != 0 {
		t.Fatalf("failed writes must not publish, got %+v", pub.events)
	}
}

func TestTransactionServiceNilPublisherAndClose(t *testing.T) {
	s, _ := newService(nil)
	if _, err := s.Create(context.Background(), pending("Coffee")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close should not fail: %v", err)
	}

	pub := &fakePublisher{}
	s, _ = newService(pub)
	if err := s.Close(); err != nil || !pub.closed {
		t.Fatalf("Close should close the publisher, err=%v closed=%v", err, pub.closed)
	}
}
