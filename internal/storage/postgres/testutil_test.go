package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL container for testing and applies
// migrations. Returns a cleanup function that must be called after
// tests complete.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	runMigrations(t, ctx, pool)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// runMigrations applies the schema the stores expect. The DDL mirrors
// the embedded migration files; the migrations package is not imported
// here to keep the dependency direction storage -> migrations only in
// production wiring.
func runMigrations(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS portfolio_snapshots (
			owner           TEXT PRIMARY KEY,
			cash            DOUBLE PRECISION NOT NULL,
			cash_start      DOUBLE PRECISION NOT NULL,
			realized        DOUBLE PRECISION NOT NULL,
			holdings        JSONB NOT NULL,
			wins            INTEGER NOT NULL DEFAULT 0,
			sells           INTEGER NOT NULL DEFAULT 0,
			prev_day_max_dd DOUBLE PRECISION,
			saved_at        TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS fills (
			fill_id      TEXT PRIMARY KEY,
			order_number TEXT NOT NULL,
			owner        TEXT NOT NULL,
			symbol       TEXT NOT NULL,
			side         TEXT NOT NULL,
			volume       BIGINT NOT NULL,
			price        DOUBLE PRECISION NOT NULL,
			filled_at    TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS daily_summaries (
			summary_id       TEXT PRIMARY KEY,
			session_date     DATE NOT NULL,
			saved_at         TIMESTAMPTZ NOT NULL,
			owner            TEXT NOT NULL,
			num_holdings     INTEGER NOT NULL,
			total_cost       DOUBLE PRECISION NOT NULL,
			unrealized       DOUBLE PRECISION NOT NULL,
			unrealized_pct   DOUBLE PRECISION NOT NULL,
			realized         DOUBLE PRECISION NOT NULL,
			cash_start       DOUBLE PRECISION NOT NULL,
			cash             DOUBLE PRECISION NOT NULL,
			nav              DOUBLE PRECISION NOT NULL,
			max_nav          DOUBLE PRECISION NOT NULL,
			min_nav          DOUBLE PRECISION NOT NULL,
			max_drawdown_pct DOUBLE PRECISION NOT NULL,
			calmar_ratio     DOUBLE PRECISION NOT NULL,
			wins             INTEGER NOT NULL,
			sells            INTEGER NOT NULL,
			win_rate_pct     DOUBLE PRECISION NOT NULL,
			return_rate_pct  DOUBLE PRECISION NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		_, err := pool.Exec(ctx, stmt)
		require.NoError(t, err, "failed to apply test schema")
	}
}

// ptr is a helper to create pointers to values.
func ptr[T any](v T) *T {
	return &v
}
