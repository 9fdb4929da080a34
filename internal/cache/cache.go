// Package cache stores primary-client extractions keyed by normalized URL.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonathan/job-extractor/internal/types"
)

const (
	// DefaultMaxEntries bounds the in-memory store
	DefaultMaxEntries = 100
	// DefaultTTL is how long an entry stays valid
	DefaultTTL = 5 * time.Minute
)

// Store is a key→extraction cache with hit/miss accounting.
// Every Get increments either the hit or the miss counter.
type Store interface {
	Get(ctx context.Context, key string) (*types.JobPostingExtraction, bool)
	Put(ctx context.Context, key string, value *types.JobPostingExtraction)
	Size() int
	HitRate() float64
}

// ErrClearUnsupported is returned when a store cannot drop its entries.
var ErrClearUnsupported = errors.New("cache does not support clearing")

// Clearer is implemented by stores that can drop every entry.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Stats is a point-in-time view of cache counters.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Size    int     `json:"size"`
	HitRate float64 `json:"hit_rate"`
}

// counters is the hit/miss bookkeeping shared by every backend.
type counters struct {
	mu     sync.Mutex
	hits   int64
	misses int64
}

func (c *counters) record(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}

func (c *counters) snapshot() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *counters) hitRate() float64 {
	hits, misses := c.snapshot()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

func (c *counters) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits = 0
	c.misses = 0
}
