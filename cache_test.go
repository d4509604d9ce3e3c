package silo

import (
	"testing"
	"time"
)

func TestQueryCacheGetPutRoundtrip(t *testing.T) {
	c := newQueryCache(100, 0)
	fp := Fingerprint(42)
	result := []ResultTuple{{Row: 0}}

	if _, ok := c.Get(fp, 1); ok {
		t.Fatal("expected miss before Put")
	}

	c.Put(fp, result, 1, 0, []uint32{7})

	entry, ok := c.Get(fp, 1)
	if !ok {
		t.Fatal("expected hit after Put with matching version")
	}
	if len(entry.Result) != 1 {
		t.Errorf("cached result has %d tuples, want 1", len(entry.Result))
	}
}

// TestQueryCacheVersionBumpInvalidates verifies that version-bump
// invalidation is authoritative: a stale entry misses once the caller's
// version has moved on, even without any dependency-map involvement.
func TestQueryCacheVersionBumpInvalidates(t *testing.T) {
	c := newQueryCache(100, 0)
	fp := Fingerprint(1)
	c.Put(fp, nil, 1, 0, nil)

	if _, ok := c.Get(fp, 2); ok {
		t.Fatal("expected miss once the caller's version has advanced past the entry's")
	}
	// The stale entry must also be gone from the LRU now.
	if _, ok := c.Get(fp, 1); ok {
		t.Fatal("expected the stale entry to have been evicted by the version-mismatch miss")
	}
}

func TestQueryCacheTTLExpiry(t *testing.T) {
	c := newQueryCache(100, time.Millisecond)
	fp := Fingerprint(1)
	c.Put(fp, nil, 1, time.Millisecond, nil)

	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get(fp, 1); ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestQueryCacheInvalidateComponentOptIn(t *testing.T) {
	c := newQueryCache(100, 0)
	fp := Fingerprint(1)
	c.Put(fp, nil, 1, 0, []uint32{5})

	// strictDeps is off by default: InvalidateComponent must be a no-op.
	c.InvalidateComponent(5)
	if _, ok := c.Get(fp, 1); !ok {
		t.Fatal("expected entry to survive InvalidateComponent while strictDeps is disabled")
	}

	c.strictDeps = true
	c.InvalidateComponent(5)
	if _, ok := c.Get(fp, 1); ok {
		t.Fatal("expected entry to be evicted once strictDeps is enabled")
	}
}

func TestQueryCacheLenBoundedByCapacity(t *testing.T) {
	const capacity = 4
	c := newQueryCache(capacity, 0)
	for i := 0; i < capacity*3; i++ {
		c.Put(Fingerprint(i), nil, 1, 0, nil)
	}
	if c.Len() > capacity {
		t.Errorf("Len() = %d, want <= %d", c.Len(), capacity)
	}
}

func TestQueryCacheClear(t *testing.T) {
	c := newQueryCache(100, 0)
	c.Put(Fingerprint(1), nil, 1, 0, []uint32{1})
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	if _, ok := c.Get(Fingerprint(1), 1); ok {
		t.Error("expected Get to miss after Clear")
	}
}
