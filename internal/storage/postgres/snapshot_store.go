package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"intraday-sim-lab/internal/domain"
	"intraday-sim-lab/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
// Holdings travel as a JSONB column since lots are only ever read back
// as a whole portfolio.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Save inserts or replaces the owner's snapshot.
func (s *SnapshotStore) Save(ctx context.Context, snap *domain.PortfolioSnapshot) error {
	if snap == nil || snap.Owner == "" {
		return storage.ErrInvalidInput
	}

	holdings, err := json.Marshal(snap.Holdings)
	if err != nil {
		return fmt.Errorf("encode holdings: %w", err)
	}

	query := `
		INSERT INTO portfolio_snapshots (
			owner, cash, cash_start, realized, holdings,
			wins, sells, prev_day_max_dd, saved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (owner) DO UPDATE SET
			cash = EXCLUDED.cash,
			cash_start = EXCLUDED.cash_start,
			realized = EXCLUDED.realized,
			holdings = EXCLUDED.holdings,
			wins = EXCLUDED.wins,
			sells = EXCLUDED.sells,
			prev_day_max_dd = EXCLUDED.prev_day_max_dd,
			saved_at = EXCLUDED.saved_at
	`

	_, err = s.pool.Exec(ctx, query,
		snap.Owner, snap.Cash, snap.CashStart, snap.Realized, holdings,
		snap.Wins, snap.Sells, snap.PrevDayMaxDD, snap.SavedAt,
	)
	if err != nil {
		return fmt.Errorf("save portfolio snapshot: %w", err)
	}
	return nil
}

// Load retrieves the owner's snapshot. Returns ErrNotFound if the owner
// has never saved one.
func (s *SnapshotStore) Load(ctx context.Context, owner string) (*domain.PortfolioSnapshot, error) {
	if owner == "" {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT owner, cash, cash_start, realized, holdings,
		       wins, sells, prev_day_max_dd, saved_at
		FROM portfolio_snapshots
		WHERE owner = $1
	`

	var snap domain.PortfolioSnapshot
	var holdings []byte

	err := s.pool.QueryRow(ctx, query, owner).Scan(
		&snap.Owner, &snap.Cash, &snap.CashStart, &snap.Realized, &holdings,
		&snap.Wins, &snap.Sells, &snap.PrevDayMaxDD, &snap.SavedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("load portfolio snapshot: %w", err)
	}

	if err := json.Unmarshal(holdings, &snap.Holdings); err != nil {
		return nil, fmt.Errorf("decode holdings: %w", err)
	}
	return &snap, nil
}
