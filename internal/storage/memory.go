package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/Veraticus/gaintrack/internal/common"
)

// MemoryStorage is a process-local backend. It records every save and can be told to
// fail writes, which makes it the backend of choice for tests.
type MemoryStorage struct {
	writeErr error
	payload  []byte
	saves    int
	mu       sync.Mutex
	saved    bool
}

// NewMemoryStorage returns an empty in-memory backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// SaveSnapshot stores a copy of payload unless a write error is set.
func (m *MemoryStorage) SaveSnapshot(ctx context.Context, payload []byte) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return fmt.Errorf("failed to save snapshot: %w", m.writeErr)
	}
	m.payload = append([]byte(nil), payload...)
	m.saved = true
	m.saves++
	return nil
}

// LoadSnapshot returns the last saved payload.
func (m *MemoryStorage) LoadSnapshot(ctx context.Context) ([]byte, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.saved {
		return nil, common.ErrNotFound
	}
	return append([]byte(nil), m.payload...), nil
}

// SetPayload seeds the backend as if payload had been saved earlier.
func (m *MemoryStorage) SetPayload(payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.payload = append([]byte(nil), payload...)
	m.saved = true
}

// SetWriteErr makes subsequent saves fail with err; nil restores normal behaviour.
func (m *MemoryStorage) SetWriteErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writeErr = err
}

// Saves returns how many snapshots were written successfully.
func (m *MemoryStorage) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.saves
}

// Close is a no-op.
func (m *MemoryStorage) Close() error {
	return nil
}
