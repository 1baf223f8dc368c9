package store

import (
	"context"
	"sync"

	"github.com/averlon/tokenbroker/internal/oauth/models"
)

type key struct {
	userID   string
	provider string
}

// MemoryStore is a mutex-guarded in-process Store, suitable for tests and
// single-instance development setups.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[key]models.TokenRecord
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[key]models.TokenRecord)}
}

// Put stores a copy of the record, replacing any prior one for the key
func (s *MemoryStore) Put(ctx context.Context, record *models.TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key{record.UserID, record.Provider}] = *record
	return nil
}

// Get returns a copy of the current record, or (nil, nil) when absent
func (s *MemoryStore) Get(ctx context.Context, userID, provider string) (*models.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[key{userID, provider}]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// Delete removes the record for the key; absent records are a no-op
func (s *MemoryStore) Delete(ctx context.Context, userID, provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key{userID, provider})
	return nil
}

var _ Store = (*MemoryStore)(nil)
