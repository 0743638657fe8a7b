package period

import (
	"testing"

	"conti/internal/ports"
)

func TestSelector(t *testing.T) {
	s, err := New("2024-05")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Current().IsLoaded {
		t.Fatalf("new selection should be unsettled")
	}

	var seen []ports.Selection
	unsubscribe := s.Subscribe(func(sel ports.Selection) { seen = append(seen, sel) })

	s.MarkLoaded()
	s.MarkLoaded()
	if len(seen) != 1 || !seen[0].IsLoaded || seen[0].Period != "2024-05" {
		t.Fatalf("expected a single loaded notification, got %+v", seen)
	}

	if err := s.Set("2024-05"); err != nil || len(seen) != 1 {
		t.Fatalf("same settled period should not notify: %v %+v", err, seen)
	}
	if err := s.Shift(1); err != nil {
		t.Fatalf("shift: %v", err)
	}
	if len(seen) != 2 || seen[1].Period != "2024-06" || !seen[1].IsLoaded {
		t.Fatalf("unexpected notification: %+v", seen)
	}

	unsubscribe()
	_ = s.Set("2024-07")
	if len(seen) != 2 {
		t.Fatalf("unsubscribed callback still invoked")
	}
	if s.Current().Period != "2024-07" {
		t.Fatalf("expected 2024-07, got %s", s.Current().Period)
	}
}

func TestSelectorRejectsInvalid(t *testing.T) {
	if _, err := New("May"); err == nil {
		t.Fatalf("expected error")
	}
	s, err := New("")
	if err != nil || s.Current().Period == "" {
		t.Fatalf("empty period should default to the current month")
	}
	if err := s.Set("2024-00"); err == nil {
		t.Fatalf("expected error")
	}
}
