// Package storage defines the persistence interfaces for simulation
// results. Implementations live in the memory, fs, postgres and
// clickhouse subpackages and share one error taxonomy.
package storage

import (
	"context"
	"time"

	"intraday-sim-lab/internal/domain"
)

// SnapshotStore persists end-of-day portfolio state, one row per
// owner. Save upserts so a team carries exactly one latest snapshot.
type SnapshotStore interface {
	// Save inserts or replaces the owner's snapshot.
	Save(ctx context.Context, snap *domain.PortfolioSnapshot) error

	// Load retrieves the owner's snapshot. Returns ErrNotFound if the
	// owner has never saved one.
	Load(ctx context.Context, owner string) (*domain.PortfolioSnapshot, error)
}

// FillStore provides access to executed-order records.
type FillStore interface {
	// InsertBulk adds multiple fills atomically. Fails entire batch on
	// any duplicate fill_id.
	InsertBulk(ctx context.Context, fills []*domain.Fill) error

	// GetByOwner retrieves all fills for an owner, ordered by time ASC.
	GetByOwner(ctx context.Context, owner string) ([]*domain.Fill, error)

	// GetByOwnerSymbol retrieves an owner's fills for one symbol,
	// ordered by time ASC.
	GetByOwnerSymbol(ctx context.Context, owner, symbol string) ([]*domain.Fill, error)
}

// SummaryStore provides access to daily summary rows.
type SummaryStore interface {
	// Insert adds a new daily summary. Returns ErrDuplicateKey if
	// summary_id exists.
	Insert(ctx context.Context, s *domain.DailySummary) error

	// GetByOwner retrieves all summaries for an owner, ordered by
	// session date ASC.
	GetByOwner(ctx context.Context, owner string) ([]*domain.DailySummary, error)
}

// TickStore provides access to the raw tick archive.
type TickStore interface {
	// InsertBulk adds multiple ticks. Fails entire batch on invalid input.
	InsertBulk(ctx context.Context, ticks []*domain.Tick) error

	// GetByDay retrieves all ticks for a calendar day, ordered by time ASC.
	GetByDay(ctx context.Context, day time.Time) ([]*domain.Tick, error)

	// GetByDaySymbol retrieves one symbol's ticks for a day, ordered by
	// time ASC.
	GetByDaySymbol(ctx context.Context, day time.Time, symbol string) ([]*domain.Tick, error)
}
