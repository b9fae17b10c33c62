package session

import (
	"context"
	"sync"
	"time"
)

//go:generate mockgen -destination=sessiontest/mock_store.go -package=sessiontest . Store

// A Store persists session Bodies by identifier.
//
// Get returns ErrNotFound when no Body is stored under id
// and ErrMalformed when what is stored cannot be read as a Body.
//
// Sweep removes every Body last checked before olderThan,
// returning how many were removed.
type Store interface {
	Get(ctx context.Context, id string) (*Body, error)
	Save(ctx context.Context, id string, body *Body) error
	Delete(ctx context.Context, id string) error
	Sweep(ctx context.Context, olderThan time.Time) (int, error)
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*FuncStore)(nil)
)

// A MemoryStore keeps encoded Bodies in a map owned by the MemoryStore.
//
// A MemoryStore lives as long as the process holding it;
// server restarts drop every session.
// It is safe for concurrent use by overlapping requests and the sweeper.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
}

// NewMemoryStore constructs an empty *MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]byte)}
}

// Get decodes the Body stored under id.
func (m *MemoryStore) Get(_ context.Context, id string) (*Body, error) {
	m.mu.Lock()
	raw, ok := m.sessions[id]
	m.mu.Unlock()

	if !ok {
		return nil, ErrNotFound
	}

	return decodeBody(raw)
}

// Save encodes body and stores it under id, replacing any existing Body.
func (m *MemoryStore) Save(_ context.Context, id string, body *Body) error {
	raw, err := encodeBody(body, false)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[id] = raw
	return nil
}

// Delete removes the Body stored under id, if any.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}

// Sweep removes every Body last checked before olderThan or that cannot be decoded.
func (m *MemoryStore) Sweep(ctx context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int
	for id, raw := range m.sessions {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		b, err := decodeBody(raw)
		if err != nil || b.LastCheck.Before(olderThan) {
			delete(m.sessions, id)
			n++
		}
	}

	return n, nil
}
