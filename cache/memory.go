// Package cache provides caching implementations for asset snapshots.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Taha-mlaiki/TrackTruck"
	"github.com/Taha-mlaiki/TrackTruck/asset"
)

// Compile-time interface check.
var _ tracktruck.Cache = (*Memory)(nil)

// Memory is an in-memory snapshot cache with TTL-based expiration.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

type entry struct {
	snap      asset.Snapshot
	expiresAt time.Time
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the cache entry time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of cache entries.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// NewMemory creates a new in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]*entry),
		ttl:     time.Minute,
		maxSize: 10000,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a cached snapshot.
func (m *Memory) Get(_ context.Context, kind asset.Kind, assetID string) (asset.Snapshot, bool) {
	key := cacheKey(kind, assetID)
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if m.now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false
	}
	return e.snap, true
}

// Set stores a snapshot in the cache.
func (m *Memory) Set(_ context.Context, snap asset.Snapshot) {
	key := cacheKey(snap.Kind(), snap.AssetID())
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxSize {
		m.evictExpired()
		if len(m.entries) >= m.maxSize {
			m.evictOldest()
		}
	}

	m.entries[key] = &entry{
		snap:      snap,
		expiresAt: m.now().Add(m.ttl),
	}
}

// Invalidate removes the cached snapshot of one asset.
func (m *Memory) Invalidate(_ context.Context, kind asset.Kind, assetID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, cacheKey(kind, assetID))
}

// Purge removes every cached snapshot.
func (m *Memory) Purge(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*entry)
}

// Len returns the number of entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func cacheKey(kind asset.Kind, assetID string) string {
	return string(kind) + ":" + assetID
}

// evictExpired removes all expired entries. Must hold write lock.
func (m *Memory) evictExpired() {
	now := m.now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// evictOldest removes the entry closest to expiry. Must hold write lock.
func (m *Memory) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, e := range m.entries {
		if oldestKey == "" || e.expiresAt.Before(oldest) {
			oldestKey, oldest = k, e.expiresAt
		}
	}
	delete(m.entries, oldestKey)
}
