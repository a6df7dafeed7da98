// Package history stores scoring and classification records.
//
// The engines never touch a repository; the assessment service saves each
// result after it is computed.
package history

import (
	"context"
	"sync"
)

// Repository persists records of one kind. List returns most-recent-first.
type Repository[T any] interface {
	Save(ctx context.Context, record T) error
	List(ctx context.Context) ([]T, error)
	Clear(ctx context.Context) error
}

// Memory is an in-process repository guarded by a mutex.
type Memory[T any] struct {
	mu      sync.RWMutex
	records []T
	limit   int
}

// NewMemory creates an in-memory repository keeping at most limit records
// (0 keeps everything).
func NewMemory[T any](limit int) *Memory[T] {
	return &Memory[T]{limit: limit}
}

// Save stores the record as the newest entry.
func (m *Memory[T]) Save(_ context.Context, record T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, record)
	if m.limit > 0 && len(m.records) > m.limit {
		m.records = append([]T(nil), m.records[len(m.records)-m.limit:]...)
	}
	return nil
}

// List returns a copy of the records, newest first.
func (m *Memory[T]) List(_ context.Context) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]T, len(m.records))
	for i, r := range m.records {
		out[len(m.records)-1-i] = r
	}
	return out, nil
}

// Clear removes every record.
func (m *Memory[T]) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = nil
	return nil
}
