// Package cache provides an in-process TTL cache implementing domain.Cache.
// It stands in for an external cache service in single-node deployments and
// in tests; the pipeline only sees the domain.Cache interface either way.
package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	payload   []byte
	expiresAt time.Time
}

// Memory is a concurrency-safe map with per-entry expiry. Expired entries
// are dropped lazily on read and swept opportunistically on write, so an
// idle cache holds stale bytes but never returns them.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	writes  int
}

// sweep every this many writes
const sweepInterval = 256

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry)}
}

// Get implements domain.Cache.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		// Double-check under the write lock: a concurrent Set may have
		// refreshed the entry.
		if cur, ok := m.entries[key]; ok && time.Now().After(cur.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.payload, true, nil
}

// Set implements domain.Cache. Writes are idempotent: concurrent writers of
// the same key simply race to store equivalent payloads.
func (m *Memory) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{payload: payload, expiresAt: time.Now().Add(ttl)}
	m.writes++
	if m.writes%sweepInterval == 0 {
		now := time.Now()
		for k, e := range m.entries {
			if now.After(e.expiresAt) {
				delete(m.entries, k)
			}
		}
	}
	return nil
}

// Len reports the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
