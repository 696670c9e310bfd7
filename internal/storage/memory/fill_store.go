package memory

import (
	"context"
	"sort"
	"sync"

	"intraday-sim-lab/internal/domain"
	"intraday-sim-lab/internal/storage"
)

// FillStore is an in-memory implementation of storage.FillStore.
type FillStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Fill // keyed by fill_id
}

// NewFillStore creates a new in-memory fill store.
func NewFillStore() *FillStore {
	return &FillStore{
		data: make(map[string]*domain.Fill),
	}
}

// InsertBulk adds multiple fills atomically. Fails entire batch on any
// duplicate fill_id.
func (s *FillStore) InsertBulk(_ context.Context, fills []*domain.Fill) error {
	if len(fills) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(fills))
	for _, f := range fills {
		if f == nil || f.FillID == "" || f.Owner == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[f.FillID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[f.FillID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[f.FillID] = struct{}{}
	}

	for _, f := range fills {
		copy := *f
		s.data[f.FillID] = &copy
	}
	return nil
}

// GetByOwner retrieves all fills for an owner, ordered by time ASC.
func (s *FillStore) GetByOwner(_ context.Context, owner string) ([]*domain.Fill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Fill
	for _, f := range s.data {
		if f.Owner == owner {
			copy := *f
			result = append(result, &copy)
		}
	}

	sortFills(result)
	return result, nil
}

// GetByOwnerSymbol retrieves an owner's fills for one symbol, ordered
// by time ASC.
func (s *FillStore) GetByOwnerSymbol(_ context.Context, owner, symbol string) ([]*domain.Fill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Fill
	for _, f := range s.data {
		if f.Owner == owner && f.Symbol == symbol {
			copy := *f
			result = append(result, &copy)
		}
	}

	sortFills(result)
	return result, nil
}

func sortFills(fills []*domain.Fill) {
	sort.Slice(fills, func(i, j int) bool {
		if fills[i].Time.Equal(fills[j].Time) {
			return fills[i].OrderNumber < fills[j].OrderNumber
		}
		return fills[i].Time.Before(fills[j].Time)
	})
}

var _ storage.FillStore = (*FillStore)(nil)
