package memory

import (
	"context"
	"sync"

	"intraday-sim-lab/internal/domain"
	"intraday-sim-lab/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PortfolioSnapshot // keyed by owner
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string]*domain.PortfolioSnapshot),
	}
}

// Save inserts or replaces the owner's snapshot.
func (s *SnapshotStore) Save(_ context.Context, snap *domain.PortfolioSnapshot) error {
	if snap == nil || snap.Owner == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *snap
	copy.Holdings = append([]domain.HoldingSnapshot(nil), snap.Holdings...)
	s.data[snap.Owner] = &copy
	return nil
}

// Load retrieves the owner's snapshot. Returns ErrNotFound if the owner
// has never saved one.
func (s *SnapshotStore) Load(_ context.Context, owner string) (*domain.PortfolioSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, exists := s.data[owner]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *snap
	copy.Holdings = append([]domain.HoldingSnapshot(nil), snap.Holdings...)
	return &copy, nil
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
