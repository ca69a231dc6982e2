package storage

import (
	"context"
	"sync"
)

// MemoryCursor is the default cursor: the last seen id lives only as long
// as the process.
type MemoryCursor struct {
	mu   sync.Mutex
	last string
}

func NewMemoryCursor() *MemoryCursor {
	return &MemoryCursor{}
}

func (m *MemoryCursor) LastSeen(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, nil
}

func (m *MemoryCursor) SetLastSeen(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = id
	return nil
}
