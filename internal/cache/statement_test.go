package cache

import (
	"testing"
	"time"

	"koinochrista/internal/core"
)

func month(y, m int) core.Month {
	return core.Month{Year: y, Month: m}
}

func TestStatementCacheRoundTrip(t *testing.T) {
	c := NewStatementCache(16, time.Minute)
	st := &core.Statement{BuildingID: 1, MonthLabel: "2025-07"}

	if _, ok := c.Get(1, month(2025, 7)); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Set(1, month(2025, 7), st)
	got, ok := c.Get(1, month(2025, 7))
	if !ok || got.MonthLabel != "2025-07" {
		t.Fatalf("expected hit, got %v %v", got, ok)
	}
}

func TestStatementCacheForwardOnlyInvalidation(t *testing.T) {
	c := NewStatementCache(16, time.Minute)
	jun, jul, aug := month(2025, 6), month(2025, 7), month(2025, 8)
	c.Set(1, jun, &core.Statement{MonthLabel: "2025-06"})
	c.Set(1, jul, &core.Statement{MonthLabel: "2025-07"})
	c.Set(1, aug, &core.Statement{MonthLabel: "2025-08"})

	// A write dated in July stales July and August but not June: the
	// carry-forward dependency only flows forward in time.
	c.Invalidate(1, jul)

	if _, ok := c.Get(1, jun); !ok {
		t.Fatal("june entry should survive a july write")
	}
	if _, ok := c.Get(1, jul); ok {
		t.Fatal("july entry should be stale after a july write")
	}
	if _, ok := c.Get(1, aug); ok {
		t.Fatal("august entry should be stale after a july write")
	}
}

func TestStatementCachePerBuildingIsolation(t *testing.T) {
	c := NewStatementCache(16, time.Minute)
	jul := month(2025, 7)
	c.Set(1, jul, &core.Statement{BuildingID: 1})
	c.Set(2, jul, &core.Statement{BuildingID: 2})

	c.Invalidate(1, jul)

	if _, ok := c.Get(1, jul); ok {
		t.Fatal("building 1 entry should be stale")
	}
	if _, ok := c.Get(2, jul); !ok {
		t.Fatal("building 2 entry should be untouched")
	}
}

func TestStatementCacheRepopulateAfterInvalidation(t *testing.T) {
	c := NewStatementCache(16, time.Minute)
	jul := month(2025, 7)
	c.Set(1, jul, &core.Statement{MonthLabel: "old"})
	c.Invalidate(1, jul)

	c.Set(1, jul, &core.Statement{MonthLabel: "new"})
	got, ok := c.Get(1, jul)
	if !ok || got.MonthLabel != "new" {
		t.Fatalf("expected repopulated entry, got %v %v", got, ok)
	}
}

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3) // evicts "a"

	if _, ok := c.Get("a"); ok {
		t.Fatal("expected oldest entry evicted")
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatalf("expected c=3, got %d %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUCacheTTL(t *testing.T) {
	c := NewLRUCache[int](4, time.Millisecond)
	c.Set("a", 1)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected entry to expire")
	}
	c.Set("b", 2)
	time.Sleep(5 * time.Millisecond)
	if removed := c.CleanExpired(); removed != 1 {
		t.Fatalf("expected 1 cleaned entry, got %d", removed)
	}
}
