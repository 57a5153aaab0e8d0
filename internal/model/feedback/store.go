package feedback

import (
	"context"
	"sync"
)

// Store persists submitted feedback.
type Store interface {
	Save(ctx context.Context, record Record) error
	List(ctx context.Context) ([]Record, error)
}

// NopStore discards every submission.
type NopStore struct{}

func (NopStore) Save(context.Context, Record) error { return nil }

func (NopStore) List(context.Context) ([]Record, error) { return nil, nil }

// MemoryStore keeps submissions in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// List returns records newest first.
func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, len(s.records))
	for i, r := range s.records {
		out[len(s.records)-1-i] = r
	}
	return out, nil
}
