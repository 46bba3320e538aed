// Package queuecache holds the last known server-side queue. The cache
// never computes a diff: every queue command response and queue push
// event replaces the snapshot wholesale.
package queuecache

import (
	"sync"

	"github.com/solenne/cadenza/internal/api"
)

// Cache is the queue projection.
type Cache struct {
	mu       sync.RWMutex
	snapshot *api.QueueSnapshot
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{}
}

// Get returns a copy of the current snapshot, or nil when no queue is
// known. Callers never see the cache's own slice.
func (c *Cache) Get() *api.QueueSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return nil
	}
	out := *c.snapshot
	out.Tracks = append([]api.TrackSummary(nil), c.snapshot.Tracks...)
	return &out
}

// Replace installs a new snapshot wholesale.
func (c *Cache) Replace(snapshot *api.QueueSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if snapshot == nil {
		c.snapshot = nil
		return
	}
	in := *snapshot
	in.Tracks = append([]api.TrackSummary(nil), snapshot.Tracks...)
	c.snapshot = &in
}

// Clear drops the snapshot. Idempotent.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = nil
}

// Size returns the number of tracks in the cached queue.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return 0
	}
	return len(c.snapshot.Tracks)
}
