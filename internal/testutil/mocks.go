// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"sync"
	"time"

	"dealquery/internal/domain"
	"dealquery/internal/embed"
)

// === Embedder ===

// HashEmbedder wraps the local bag-of-words embedder with call counting and
// injectable failure, which is enough to exercise ranking and fallback
// paths without a real embedding service.
type HashEmbedder struct {
	Dim int
	Err error // returned from every Embed call when set

	mu    sync.Mutex
	Calls int
}

// Embed implements domain.Embedder.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.Calls++
	e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	dim := e.Dim
	if dim == 0 {
		dim = 32
	}
	local := &embed.Local{Dim: dim}
	return local.Embed(ctx, text)
}

// === Query Runner ===

// MockRunner implements domain.QueryRunner for testing.
type MockRunner struct {
	RunFn func(ctx context.Context, description string, tables []string) ([]domain.Row, error)

	mu           sync.Mutex
	Descriptions []string // collected step descriptions for assertions
}

// Run implements the interface method for testing.
func (m *MockRunner) Run(ctx context.Context, description string, tables []string) ([]domain.Row, error) {
	m.mu.Lock()
	m.Descriptions = append(m.Descriptions, description)
	m.mu.Unlock()
	if m.RunFn != nil {
		return m.RunFn(ctx, description, tables)
	}
	return nil, nil
}

// === Cache ===

// MockCache implements domain.Cache with injectable failures.
type MockCache struct {
	GetErr error
	SetErr error

	mu      sync.Mutex
	store   map[string][]byte
	expires map[string]time.Time
}

// Get implements the interface method for testing.
func (m *MockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.store[key]
	if !ok || time.Now().After(m.expires[key]) {
		return nil, false, nil
	}
	return payload, true, nil
}

// Set implements the interface method for testing.
func (m *MockCache) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		m.store = make(map[string][]byte)
		m.expires = make(map[string]time.Time)
	}
	m.store[key] = payload
	m.expires[key] = time.Now().Add(ttl)
	return nil
}
