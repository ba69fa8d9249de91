/*
cache.go - Response cache for pure calculations

PURPOSE:
  Simulation output depends only on its inputs, so rendered responses can
  be kept and replayed. The API stores encoded JSON under a key derived
  from the resolved inputs; a miss just means the work is done again.

IMPLEMENTATIONS:
  Memory:  Process-local map with per-entry expiry (default)
  Redis:   Shared cache for several server instances (redis.go)

SEE ALSO:
  - api/handlers.go: Simulate uses the cache
  - config/config.go: CACHE_TTL, REDIS_ADDR
*/
package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Cache stores opaque values by key. Implementations must be safe for
// concurrent use. A zero ttl means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Key joins a namespace and the 64-bit hash of the canonical input.
func Key(namespace string, canonical []byte) string {
	return namespace + ":" + strconv.FormatUint(xxhash.Sum64(canonical), 16)
}

// =============================================================================
// MEMORY
// =============================================================================

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process cache. Expired entries are dropped on read and
// by a sweep once the map grows past MaxEntries.
type Memory struct {
	MaxEntries int

	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemory creates an empty cache holding at most maxEntries values
// (0 means unbounded).
func NewMemory(maxEntries int) *Memory {
	return &Memory{
		MaxEntries: maxEntries,
		entries:    make(map[string]entry),
		now:        time.Now,
	}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if m.expired(e, m.now()) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if _, exists := m.entries[key]; !exists && m.MaxEntries > 0 && len(m.entries) >= m.MaxEntries {
		m.evict(now)
	}

	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	m.entries[key] = e
	return nil
}

// Len is the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) expired(e entry, now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// evict drops expired entries, then the soonest-expiring one if the map
// is still full. Must be called with mu held.
func (m *Memory) evict(now time.Time) {
	for k, e := range m.entries {
		if m.expired(e, now) {
			delete(m.entries, k)
		}
	}
	if len(m.entries) < m.MaxEntries {
		return
	}

	var victim string
	var victimAt time.Time
	for k, e := range m.entries {
		at := e.expiresAt
		if at.IsZero() {
			at = time.Unix(1<<62, 0)
		}
		if victim == "" || at.Before(victimAt) || (at.Equal(victimAt) && k < victim) {
			victim, victimAt = k, at
		}
	}
	delete(m.entries, victim)
}

var _ Cache = (*Memory)(nil)
