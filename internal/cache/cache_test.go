package cache

import (
	"testing"
	"time"
)

func TestCacheGetSet(t *testing.T) {
	c := New[int](time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected miss on empty cache")
	}
	c.Set("a", 42)
	got, ok := c.Get("a")
	if !ok || got != 42 {
		t.Fatalf("expected 42, got %d ok=%v", got, ok)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New[string](time.Minute)
	now := time.Now()
	c.SetClock(func() time.Time { return now })

	c.Set("k", "v")
	now = now.Add(61 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestCacheTake(t *testing.T) {
	c := New[string](time.Minute)
	c.Set("k", "v")
	if v, ok := c.Take("k"); !ok || v != "v" {
		t.Fatalf("expected take to return v, got %q ok=%v", v, ok)
	}
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected entry to be consumed")
	}
}

func TestCacheSweep(t *testing.T) {
	c := New[int](time.Minute)
	now := time.Now()
	c.SetClock(func() time.Time { return now })

	c.Set("a", 1)
	c.SetTTL("b", 2, time.Hour)
	now = now.Add(2 * time.Minute)

	if removed := c.Sweep(); removed != 1 {
		t.Fatalf("expected 1 swept entry, got %d", removed)
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatalf("expected long-lived entry to survive sweep")
	}
}
