package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestLRUEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok { // a becomes most recent
		t.Fatalf("expected a")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a should survive, got %d %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}

	c.Set("a", 10)
	if v, _ := c.Get("a"); v != 10 {
		t.Fatalf("overwrite failed, got %d", v)
	}
	c.Delete("a")
	c.Purge()
	if c.Size() != 0 {
		t.Fatalf("purge failed")
	}
}

func TestLRUExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](10, time.Minute).WithClock(clock.now)
	c.Set("x", "1")
	c.Set("y", "2")

	clock.t = clock.t.Add(30 * time.Second)
	c.Set("z", "3")
	if _, ok := c.Get("x"); !ok {
		t.Fatalf("x should still be live")
	}

	clock.t = clock.t.Add(45 * time.Second)
	if _, ok := c.Get("x"); ok {
		t.Fatalf("x should have expired")
	}

	m := NewManager(nil)
	m.Register(c)
	if n := m.CleanAll(); n != 1 {
		t.Fatalf("expected y to be cleaned, removed %d", n)
	}
	if v, ok := c.Get("z"); !ok || v != "3" {
		t.Fatalf("z should be live")
	}
}

func TestNoTTLNeverExpires(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := NewLRUCache[int](1, 0).WithClock(clock.now)
	c.Set("k", 1)
	clock.t = clock.t.Add(24 * time.Hour)
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("entry without TTL expired")
	}
}

func TestManagerStop(t *testing.T) {
	m := NewManager(nil)
	m.StartCleanup(time.Millisecond)
	m.Stop()
	m.Stop()
	m.Wait()
}
