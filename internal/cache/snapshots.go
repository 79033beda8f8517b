// Package cache provides caching utilities for the MCP server.
package cache

import (
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/usestring/restiming-mcp/pkg/perf"
)

// Snapshot is a validated page snapshot held in memory.
type Snapshot struct {
	ID       string      // content-derived identifier
	Source   string      // where the snapshot came from: inline, a path, or collector:<id>
	Frame    *perf.Frame // decoded frame tree
	Raw      []byte      // original JSON document
	LoadedAt time.Time
	Frames   int // number of contexts in the tree
	Entries  int // number of resource entries across all contexts
}

// entry pairs a snapshot with the order in which it was last loaded.
type entry struct {
	snap *Snapshot
	seq  uint64
}

// SnapshotCache provides thread-safe LRU caching of loaded snapshots.
type SnapshotCache struct {
	cache *lru.Cache[string, entry]
	seq   atomic.Uint64
}

// NewSnapshotCache creates a new LRU cache with the specified maximum number of items.
func NewSnapshotCache(maxItems int) (*SnapshotCache, error) {
	c, err := lru.New[string, entry](maxItems)
	if err != nil {
		return nil, err
	}
	return &SnapshotCache{cache: c}, nil
}

// Get retrieves a snapshot by ID.
// Returns the snapshot and true if found, nil and false otherwise.
func (c *SnapshotCache) Get(id string) (*Snapshot, bool) {
	e, ok := c.cache.Get(id)
	return e.snap, ok
}

// Put adds or updates a snapshot and marks it as the latest load.
func (c *SnapshotCache) Put(s *Snapshot) {
	c.cache.Add(s.ID, entry{snap: s, seq: c.seq.Add(1)})
}

// MarkLoaded records a repeated load of a cached snapshot, making it the
// latest. It reports whether id was present.
func (c *SnapshotCache) MarkLoaded(id string) bool {
	e, ok := c.cache.Peek(id)
	if !ok {
		return false
	}
	e.seq = c.seq.Add(1)
	c.cache.Add(id, e)
	return true
}

// Latest returns the most recently loaded snapshot. Lookups through Get do
// not change it.
func (c *SnapshotCache) Latest() (*Snapshot, bool) {
	var latest entry
	for _, k := range c.cache.Keys() {
		if e, ok := c.cache.Peek(k); ok && e.seq > latest.seq {
			latest = e
		}
	}
	return latest.snap, latest.snap != nil
}

// Remove evicts a snapshot, reporting whether it was present.
func (c *SnapshotCache) Remove(id string) bool {
	return c.cache.Remove(id)
}

// List returns cached snapshots from oldest to most recently used.
func (c *SnapshotCache) List() []*Snapshot {
	keys := c.cache.Keys()
	out := make([]*Snapshot, 0, len(keys))
	for _, k := range keys {
		if e, ok := c.cache.Peek(k); ok {
			out = append(out, e.snap)
		}
	}
	return out
}

// Len returns the current number of items in the cache.
func (c *SnapshotCache) Len() int {
	return c.cache.Len()
}
