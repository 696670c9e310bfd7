package memory

import (
	"context"
	"sort"
	"sync"

	"intraday-sim-lab/internal/domain"
	"intraday-sim-lab/internal/storage"
)

// SummaryStore is an in-memory implementation of storage.SummaryStore.
type SummaryStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DailySummary // keyed by summary_id
}

// NewSummaryStore creates a new in-memory summary store.
func NewSummaryStore() *SummaryStore {
	return &SummaryStore{
		data: make(map[string]*domain.DailySummary),
	}
}

// Insert adds a new daily summary. Returns ErrDuplicateKey if
// summary_id exists.
func (s *SummaryStore) Insert(_ context.Context, ds *domain.DailySummary) error {
	if ds == nil || ds.SummaryID == "" || ds.Summary.Owner == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[ds.SummaryID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *ds
	s.data[ds.SummaryID] = &copy
	return nil
}

// GetByOwner retrieves all summaries for an owner, ordered by session
// date ASC.
func (s *SummaryStore) GetByOwner(_ context.Context, owner string) ([]*domain.DailySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DailySummary
	for _, ds := range s.data {
		if ds.Summary.Owner == owner {
			copy := *ds
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].SessionDate.Before(result[j].SessionDate)
	})
	return result, nil
}

var _ storage.SummaryStore = (*SummaryStore)(nil)
