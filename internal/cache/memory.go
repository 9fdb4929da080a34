package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jonathan/job-extractor/internal/types"
)

// MemoryStore is a bounded LRU with per-entry TTL.
type MemoryStore struct {
	lru *expirable.LRU[string, *types.JobPostingExtraction]
	counters
}

// NewMemoryStore creates a store holding at most maxEntries entries for ttl each.
// Non-positive values fall back to DefaultMaxEntries and DefaultTTL.
func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		lru: expirable.NewLRU[string, *types.JobPostingExtraction](maxEntries, nil, ttl),
	}
}

// Get returns a copy of the cached extraction. Expired entries count as misses.
func (s *MemoryStore) Get(_ context.Context, key string) (*types.JobPostingExtraction, bool) {
	v, ok := s.lru.Get(key)
	s.record(ok)
	if !ok {
		return nil, false
	}
	return v.Clone(), true
}

// Put stores a copy of value, overwriting any previous entry for key.
func (s *MemoryStore) Put(_ context.Context, key string, value *types.JobPostingExtraction) {
	if value == nil {
		return
	}
	s.lru.Add(key, value.Clone())
}

// Size returns the number of live entries.
func (s *MemoryStore) Size() int {
	return s.lru.Len()
}

// HitRate returns hits/(hits+misses), or 0 before the first Get.
func (s *MemoryStore) HitRate() float64 {
	return s.hitRate()
}

// Clear drops every entry and resets the counters.
func (s *MemoryStore) Clear(context.Context) error {
	s.lru.Purge()
	s.reset()
	return nil
}

// Stats returns the current counters.
func (s *MemoryStore) Stats() Stats {
	hits, misses := s.snapshot()
	return Stats{Hits: hits, Misses: misses, Size: s.Size(), HitRate: s.hitRate()}
}
