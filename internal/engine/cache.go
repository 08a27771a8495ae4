package engine

import (
	"sync"
	"time"
)

// Cache TTLs, fixed at write time from the snapshot's own content. A
// playing snapshot goes stale quickly; an idle one can sit for a
// minute.
const (
	playingTTL = 5 * time.Second
	idleTTL    = 60 * time.Second
)

// cacheEntry pairs a snapshot with the moment it was fetched. Entries
// are replaced wholesale on the next successful fetch, never mutated.
type cacheEntry struct {
	snapshot  PlaybackSnapshot
	fetchedAt time.Time
	ttl       time.Duration
}

// snapshotCache maps cache keys to snapshots with read-driven expiry.
// There is no background sweeper: the working set is one entry per
// tracked resource and playing flag, so expiry on lookup is enough.
type snapshotCache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]cacheEntry
}

// newSnapshotCache creates an empty cache reading time from now.
func newSnapshotCache(now func() time.Time) *snapshotCache {
	return &snapshotCache{
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached snapshot for key, evicting and missing when
// the entry has outlived its TTL. An entry is expired once its age
// reaches the TTL exactly.
func (c *snapshotCache) Get(key string) (PlaybackSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return PlaybackSnapshot{}, false
	}
	if c.now().Sub(entry.fetchedAt) >= entry.ttl {
		delete(c.entries, key)
		return PlaybackSnapshot{}, false
	}
	return entry.snapshot, true
}

// Put stores a snapshot under key. The TTL is computed here, from the
// snapshot being written, and never recomputed afterwards.
func (c *snapshotCache) Put(key string, snapshot PlaybackSnapshot) {
	ttl := idleTTL
	if snapshot.IsPlaying {
		ttl = playingTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		snapshot:  snapshot,
		fetchedAt: c.now(),
		ttl:       ttl,
	}
}

// Len reports the number of live entries, counting expired ones that
// have not been read yet.
func (c *snapshotCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
