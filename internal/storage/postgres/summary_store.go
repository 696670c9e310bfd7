package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"intraday-sim-lab/internal/domain"
	"intraday-sim-lab/internal/storage"
)

// SummaryStore implements storage.SummaryStore using PostgreSQL.
type SummaryStore struct {
	pool *Pool
}

// NewSummaryStore creates a new SummaryStore.
func NewSummaryStore(pool *Pool) *SummaryStore {
	return &SummaryStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SummaryStore = (*SummaryStore)(nil)

// Insert adds a new daily summary. Returns ErrDuplicateKey if
// summary_id exists.
func (s *SummaryStore) Insert(ctx context.Context, ds *domain.DailySummary) error {
	if ds == nil || ds.SummaryID == "" || ds.Summary.Owner == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO daily_summaries (
			summary_id, session_date, saved_at, owner,
			num_holdings, total_cost, unrealized, unrealized_pct, realized,
			cash_start, cash, nav, max_nav, min_nav,
			max_drawdown_pct, calmar_ratio, wins, sells, win_rate_pct, return_rate_pct
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20
		)
	`

	sum := ds.Summary
	_, err := s.pool.Exec(ctx, query,
		ds.SummaryID, ds.SessionDate, ds.SavedAt, sum.Owner,
		sum.NumHoldings, sum.TotalCost, sum.Unrealized, sum.UnrealizedPct, sum.Realized,
		sum.CashStart, sum.Cash, sum.NAV, sum.MaxNAV, sum.MinNAV,
		sum.MaxDrawdownPct, sum.CalmarRatio, sum.Wins, sum.Sells, sum.WinRatePct, sum.ReturnRatePct,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert daily summary: %w", err)
	}
	return nil
}

// GetByOwner retrieves all summaries for an owner, ordered by session
// date ASC.
func (s *SummaryStore) GetByOwner(ctx context.Context, owner string) ([]*domain.DailySummary, error) {
	query := `
		SELECT summary_id, session_date, saved_at, owner,
		       num_holdings, total_cost, unrealized, unrealized_pct, realized,
		       cash_start, cash, nav, max_nav, min_nav,
		       max_drawdown_pct, calmar_ratio, wins, sells, win_rate_pct, return_rate_pct
		FROM daily_summaries
		WHERE owner = $1
		ORDER BY session_date ASC
	`

	rows, err := s.pool.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("get daily summaries by owner: %w", err)
	}
	defer rows.Close()

	return scanDailySummaries(rows)
}

// scanDailySummaries scans multiple rows into a slice of DailySummary.
func scanDailySummaries(rows pgx.Rows) ([]*domain.DailySummary, error) {
	var summaries []*domain.DailySummary

	for rows.Next() {
		var ds domain.DailySummary
		sum := &ds.Summary

		err := rows.Scan(
			&ds.SummaryID, &ds.SessionDate, &ds.SavedAt, &sum.Owner,
			&sum.NumHoldings, &sum.TotalCost, &sum.Unrealized, &sum.UnrealizedPct, &sum.Realized,
			&sum.CashStart, &sum.Cash, &sum.NAV, &sum.MaxNAV, &sum.MinNAV,
			&sum.MaxDrawdownPct, &sum.CalmarRatio, &sum.Wins, &sum.Sells, &sum.WinRatePct, &sum.ReturnRatePct,
		)
		if err != nil {
			return nil, fmt.Errorf("scan daily summary row: %w", err)
		}

		summaries = append(summaries, &ds)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily summary rows: %w", err)
	}

	return summaries, nil
}
