package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"intraday-sim-lab/internal/domain"
	"intraday-sim-lab/internal/storage"
)

// FillStore implements storage.FillStore using PostgreSQL.
type FillStore struct {
	pool *Pool
}

// NewFillStore creates a new FillStore.
func NewFillStore(pool *Pool) *FillStore {
	return &FillStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FillStore = (*FillStore)(nil)

const insertFillQuery = `
	INSERT INTO fills (
		fill_id, order_number, owner, symbol, side, volume, price, filled_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

// InsertBulk adds multiple fills atomically. Fails entire batch on any
// duplicate fill_id.
func (s *FillStore) InsertBulk(ctx context.Context, fills []*domain.Fill) error {
	if len(fills) == 0 {
		return nil
	}

	for _, f := range fills {
		if f == nil || f.FillID == "" || f.Owner == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, f := range fills {
		_, err := tx.Exec(ctx, insertFillQuery,
			f.FillID, f.OrderNumber, f.Owner, f.Symbol, string(f.Side), f.Volume, f.Price, f.Time,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert fill in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByOwner retrieves all fills for an owner, ordered by time ASC.
func (s *FillStore) GetByOwner(ctx context.Context, owner string) ([]*domain.Fill, error) {
	query := `
		SELECT fill_id, order_number, owner, symbol, side, volume, price, filled_at
		FROM fills
		WHERE owner = $1
		ORDER BY filled_at ASC, order_number ASC
	`

	rows, err := s.pool.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("get fills by owner: %w", err)
	}
	defer rows.Close()

	return scanFills(rows)
}

// GetByOwnerSymbol retrieves an owner's fills for one symbol, ordered
// by time ASC.
func (s *FillStore) GetByOwnerSymbol(ctx context.Context, owner, symbol string) ([]*domain.Fill, error) {
	query := `
		SELECT fill_id, order_number, owner, symbol, side, volume, price, filled_at
		FROM fills
		WHERE owner = $1 AND symbol = $2
		ORDER BY filled_at ASC, order_number ASC
	`

	rows, err := s.pool.Query(ctx, query, owner, symbol)
	if err != nil {
		return nil, fmt.Errorf("get fills by owner/symbol: %w", err)
	}
	defer rows.Close()

	return scanFills(rows)
}

// scanFills scans multiple rows into a slice of Fill.
func scanFills(rows pgx.Rows) ([]*domain.Fill, error) {
	var fills []*domain.Fill

	for rows.Next() {
		var f domain.Fill
		var side string

		err := rows.Scan(
			&f.FillID, &f.OrderNumber, &f.Owner, &f.Symbol, &side, &f.Volume, &f.Price, &f.Time,
		)
		if err != nil {
			return nil, fmt.Errorf("scan fill row: %w", err)
		}
		f.Side = domain.Side(side)

		fills = append(fills, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fill rows: %w", err)
	}

	return fills, nil
}
