package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"intraday-sim-lab/internal/domain"
	"intraday-sim-lab/internal/storage"
)

// TickStore is an in-memory implementation of storage.TickStore.
type TickStore struct {
	mu   sync.RWMutex
	data []*domain.Tick
}

// NewTickStore creates a new in-memory tick store.
func NewTickStore() *TickStore {
	return &TickStore{}
}

// InsertBulk adds multiple ticks. Fails entire batch on invalid input.
func (s *TickStore) InsertBulk(_ context.Context, ticks []*domain.Tick) error {
	if len(ticks) == 0 {
		return nil
	}

	for _, t := range ticks {
		if t == nil || t.Symbol == "" || t.Time.IsZero() {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range ticks {
		copy := *t
		s.data = append(s.data, &copy)
	}
	return nil
}

// GetByDay retrieves all ticks for a calendar day, ordered by time ASC.
func (s *TickStore) GetByDay(_ context.Context, day time.Time) ([]*domain.Tick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Tick
	for _, t := range s.data {
		if sameDay(t.Time, day) {
			copy := *t
			result = append(result, &copy)
		}
	}

	sortTicks(result)
	return result, nil
}

// GetByDaySymbol retrieves one symbol's ticks for a day, ordered by
// time ASC.
func (s *TickStore) GetByDaySymbol(_ context.Context, day time.Time, symbol string) ([]*domain.Tick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Tick
	for _, t := range s.data {
		if t.Symbol == symbol && sameDay(t.Time, day) {
			copy := *t
			result = append(result, &copy)
		}
	}

	sortTicks(result)
	return result, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sortTicks(ticks []*domain.Tick) {
	sort.SliceStable(ticks, func(i, j int) bool {
		return ticks[i].Time.Before(ticks[j].Time)
	})
}

var _ storage.TickStore = (*TickStore)(nil)
