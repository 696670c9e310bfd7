package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"intraday-sim-lab/internal/domain"
	"intraday-sim-lab/internal/storage"
)

// TickStore implements storage.TickStore using ClickHouse. The raw
// tick archive is append-only and read back a day at a time for
// replay, which fits a MergeTree ordered by (trade_date, symbol, ts).
type TickStore struct {
	conn *Conn
}

// NewTickStore creates a new TickStore.
func NewTickStore(conn *Conn) *TickStore {
	return &TickStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TickStore = (*TickStore)(nil)

// InsertBulk adds multiple ticks. Fails entire batch on invalid input.
func (s *TickStore) InsertBulk(ctx context.Context, ticks []*domain.Tick) error {
	if len(ticks) == 0 {
		return nil
	}

	for _, t := range ticks {
		if t == nil || t.Symbol == "" || t.Time.IsZero() {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO ticks (
			symbol, trade_date, ts, price, volume, flag
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range ticks {
		err = batch.Append(
			t.Symbol, t.Time.Truncate(24*time.Hour), t.Time,
			t.Price, uint64(t.Volume), string(t.Flag),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByDay retrieves all ticks for a calendar day, ordered by time ASC.
func (s *TickStore) GetByDay(ctx context.Context, day time.Time) ([]*domain.Tick, error) {
	query := `
		SELECT symbol, ts, price, volume, flag
		FROM ticks
		WHERE trade_date = ?
		ORDER BY ts ASC
	`

	rows, err := s.conn.Query(ctx, query, day.Truncate(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("query ticks by day: %w", err)
	}
	defer rows.Close()

	return scanTicks(rows)
}

// GetByDaySymbol retrieves one symbol's ticks for a day, ordered by
// time ASC.
func (s *TickStore) GetByDaySymbol(ctx context.Context, day time.Time, symbol string) ([]*domain.Tick, error) {
	query := `
		SELECT symbol, ts, price, volume, flag
		FROM ticks
		WHERE trade_date = ? AND symbol = ?
		ORDER BY ts ASC
	`

	rows, err := s.conn.Query(ctx, query, day.Truncate(24*time.Hour), symbol)
	if err != nil {
		return nil, fmt.Errorf("query ticks by day/symbol: %w", err)
	}
	defer rows.Close()

	return scanTicks(rows)
}

// scanTicks scans multiple rows.
func scanTicks(rows driver.Rows) ([]*domain.Tick, error) {
	var ticks []*domain.Tick

	for rows.Next() {
		var t domain.Tick
		var volume uint64
		var flag string

		if err := rows.Scan(&t.Symbol, &t.Time, &t.Price, &volume, &flag); err != nil {
			return nil, fmt.Errorf("scan tick row: %w", err)
		}

		t.Volume = int64(volume)
		t.Flag = domain.TickFlag(flag)
		ticks = append(ticks, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tick rows: %w", err)
	}

	return ticks, nil
}
