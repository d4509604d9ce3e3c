package silo

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/holiman/bloomfilter/v2"
)

// CacheEntry is one memoized query result (spec §3/§4.4).
type CacheEntry struct {
	Fingerprint  Fingerprint
	Result       []ResultTuple
	CreatedAt    time.Time
	TTL          time.Duration
	WorldVersion uint64
	AccessCount  uint64
	LastAccess   time.Time
}

func (e *CacheEntry) expired(now time.Time) bool {
	return e.TTL > 0 && now.After(e.CreatedAt.Add(e.TTL))
}

// queryCache is the multi-tier result cache of spec §4.4: a bloom
// filter gate in front of an LRU store, a dependency map for
// finer-grained invalidation, and a version map recording the world
// version each fingerprint was computed at. A stale entry is recognized
// on touch from its own WorldVersion. One mutex guards the bloom filter and the LRU
// together, per spec §5 ("avoid races between eviction and insertion").
type queryCache struct {
	mu sync.Mutex

	bloom   *bloomfilter.Filter
	lru     *lru.Cache[Fingerprint, *CacheEntry]
	depMap  map[uint32]map[Fingerprint]struct{}
	version map[Fingerprint]uint64

	insertsSinceSweep int
	strictDeps        bool
}

func newQueryCache(maxEntries int, ttl time.Duration) *queryCache {
	if maxEntries <= 0 {
		maxEntries = 10_000
	}
	bloom, err := bloomfilter.NewOptimal(uint64(maxEntries), 0.01)
	if err != nil {
		// NewOptimal only fails on a degenerate (zero-size) request;
		// maxEntries is clamped above zero, so fall back to a small
		// fixed filter rather than leaving the cache bloom-less.
		bloom, _ = bloomfilter.New(1<<16, 3)
	}
	backing, _ := lru.New[Fingerprint, *CacheEntry](maxEntries)
	return &queryCache{
		bloom:   bloom,
		lru:     backing,
		depMap:  make(map[uint32]map[Fingerprint]struct{}),
		version: make(map[Fingerprint]uint64),
	}
}

func bloomKey(fp Fingerprint) *xxhash.Digest {
	h := xxhash.New()
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(fp >> (8 * i))
	}
	h.Write(buf[:])
	return h
}

// Get implements the read path: might_contain -> lru.get -> version
// check -> return or discard (spec §4.4).
func (c *queryCache) Get(fp Fingerprint, currentVersion uint64) (*CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.bloom.Contains(bloomKey(fp)) {
		return nil, false
	}
	entry, ok := c.lru.Get(fp)
	if !ok {
		return nil, false
	}
	if entry.expired(time.Now()) || entry.WorldVersion != currentVersion {
		c.evictLocked(fp)
		return nil, false
	}
	entry.AccessCount++
	entry.LastAccess = time.Now()
	return entry, true
}

// Put inserts a freshly computed result, registering its component
// dependencies for the optional dependency-tracking invalidation path.
func (c *queryCache) Put(fp Fingerprint, result []ResultTuple, worldVersion uint64, ttl time.Duration, deps []uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &CacheEntry{
		Fingerprint:  fp,
		Result:       result,
		CreatedAt:    time.Now(),
		TTL:          ttl,
		WorldVersion: worldVersion,
		LastAccess:   time.Now(),
	}
	c.bloom.Add(bloomKey(fp))
	c.lru.Add(fp, entry)
	c.version[fp] = worldVersion
	for _, d := range deps {
		set, ok := c.depMap[d]
		if !ok {
			set = make(map[Fingerprint]struct{})
			c.depMap[d] = set
		}
		set[fp] = struct{}{}
	}

	c.insertsSinceSweep++
	if c.insertsSinceSweep >= 100 {
		c.sweepExpiredLocked()
		c.insertsSinceSweep = 0
	}
}

// InvalidateComponent evicts every fingerprint depending on component
// type id — the finer-grained path spec §9 keeps as optional and
// opt-in via Config.StrictDependencies; version-bump invalidation
// (invalidateAll, called after every structural mutation) is the
// default and authoritative mechanism.
func (c *queryCache) InvalidateComponent(id uint32) {
	if !c.strictDeps {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for fp := range c.depMap[id] {
		c.evictLocked(fp)
	}
	delete(c.depMap, id)
}

// invalidateAll discards every cache entry's version association:
// cheap and correct, since subsequent Get calls compare against the
// world's new version and miss. Entries themselves are left in the LRU
// (and bloom) until naturally evicted or overwritten, avoiding an O(n)
// walk on every mutation.
func (c *queryCache) invalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version = make(map[Fingerprint]uint64)
}

func (c *queryCache) evictLocked(fp Fingerprint) {
	c.lru.Remove(fp)
	delete(c.version, fp)
	for id, set := range c.depMap {
		delete(set, fp)
		if len(set) == 0 {
			delete(c.depMap, id)
		}
	}
}

func (c *queryCache) sweepExpiredLocked() {
	now := time.Now()
	for _, fp := range c.lru.Keys() {
		entry, ok := c.lru.Peek(fp)
		if ok && entry.expired(now) {
			c.evictLocked(fp)
		}
	}
}

// Len returns the number of entries currently held — never exceeds the
// configured capacity (spec §8 invariant 10).
func (c *queryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Clear resets the cache fully, for the world's clear path.
func (c *queryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
	c.depMap = make(map[uint32]map[Fingerprint]struct{})
	c.version = make(map[Fingerprint]uint64)
}
