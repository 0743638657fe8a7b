package grid

import (
	"testing"

	"github.com/shopspring/decimal"

	"conti/internal/core"
)

func TestGuard(t *testing.T) {
	var g Guard
	if g.Started() {
		t.Fatalf("zero guard should not be started")
	}

	a := g.Begin("2024-05")
	if !g.Valid(a) {
		t.Fatalf("latest token should be valid")
	}
	b := g.Begin("2024-05")
	if g.Valid(a) || !g.Valid(b) {
		t.Fatalf("a newer fetch of the same period supersedes the older one")
	}
	c := g.Begin("2024-06")
	if g.Valid(b) || !g.Valid(c) || g.Period() != "2024-06" {
		t.Fatalf("a period change supersedes every earlier token")
	}
	if c.Seq() <= b.Seq() || c.Period() != "2024-06" {
		t.Fatalf("sequence must increase")
	}
}

func TestStoreResetKeepsPendingRows(t *testing.T) {
	var s Store
	s.reset(core.Page{Records: []core.Transaction{{ID: "1"}, {ID: "2"}}, Total: 10})
	s.prepend(core.Transaction{ID: "pending-a", Pending: true, Amount: decimal.NewFromInt(-5)})

	s.reset(core.Page{Records: []core.Transaction{{ID: "3"}}, Total: 1})
	rows := s.snapshot()
	if len(rows) != 2 || rows[0].ID != "pending-a" || rows[1].ID != "3" {
		t.Fatalf("unexpected rows %+v", rows)
	}

	if !s.replaceID("pending-a", core.Transaction{ID: "4"}) || s.has("pending-a") || !s.has("4") {
		t.Fatalf("replaceID failed")
	}
	if s.total != 2 {
		t.Fatalf("a created row counts toward the server total, got %d", s.total)
	}

	s.remove(map[string]struct{}{"3": {}})
	if s.has("3") || len(s.snapshot()) != 1 || s.total != 1 {
		t.Fatalf("remove failed, total %d", s.total)
	}
	s.clear()
	if len(s.snapshot()) != 0 || s.summary().Count != 0 {
		t.Fatalf("clear failed")
	}
}

func TestStoreReplaceIDDropsRefetchedCopy(t *testing.T) {
	var s Store
	s.prepend(core.Transaction{ID: "pending-a", Pending: true})
	// A refetch landed while the create was in flight and already lists it.
	s.reset(core.Page{Records: []core.Transaction{{ID: "1"}, {ID: "srv-9"}}, Total: 2})

	if !s.replaceID("pending-a", core.Transaction{ID: "srv-9", Name: "Coffee"}) {
		t.Fatalf("replaceID failed")
	}
	rows := s.snapshot()
	if len(rows) != 2 || rows[0].ID != "srv-9" || rows[0].Name != "Coffee" || rows[1].ID != "1" {
		t.Fatalf("expected each id once with the created row on top, got %+v", rows)
	}
	if s.total != 2 {
		t.Fatalf("an already listed row must not grow the total, got %d", s.total)
	}
}
