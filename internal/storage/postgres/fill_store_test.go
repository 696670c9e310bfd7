package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intraday-sim-lab/internal/domain"
	"intraday-sim-lab/internal/storage"
)

func TestFillStore_InsertBulkAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewFillStore(pool)
	ctx := context.Background()
	base := time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC)

	fills := []*domain.Fill{
		{FillID: "f2", OrderNumber: "ORD00002", Owner: "team01", Symbol: "AOT", Side: domain.SideSell, Volume: 100, Price: 58.75, Time: base.Add(time.Hour)},
		{FillID: "f1", OrderNumber: "ORD00001", Owner: "team01", Symbol: "AOT", Side: domain.SideBuy, Volume: 100, Price: 58.25, Time: base},
		{FillID: "f3", OrderNumber: "ORD00003", Owner: "team02", Symbol: "PTT", Side: domain.SideBuy, Volume: 200, Price: 30.25, Time: base},
	}
	require.NoError(t, store.InsertBulk(ctx, fills))

	got, err := store.GetByOwner(ctx, "team01")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "f1", got[0].FillID)
	assert.Equal(t, "f2", got[1].FillID)
	assert.Equal(t, domain.SideBuy, got[0].Side)

	bySymbol, err := store.GetByOwnerSymbol(ctx, "team02", "PTT")
	require.NoError(t, err)
	require.Len(t, bySymbol, 1)
	assert.Equal(t, "f3", bySymbol[0].FillID)
}

func TestFillStore_DuplicateFailsBatch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewFillStore(pool)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.InsertBulk(ctx, []*domain.Fill{
		{FillID: "f1", OrderNumber: "ORD00001", Owner: "team01", Symbol: "AOT", Side: domain.SideBuy, Volume: 100, Price: 58.25, Time: now},
	}))

	err := store.InsertBulk(ctx, []*domain.Fill{
		{FillID: "f2", OrderNumber: "ORD00002", Owner: "team01", Symbol: "AOT", Side: domain.SideBuy, Volume: 100, Price: 58.25, Time: now},
		{FillID: "f1", OrderNumber: "ORD00001", Owner: "team01", Symbol: "AOT", Side: domain.SideBuy, Volume: 100, Price: 58.25, Time: now},
	})
	assert.True(t, errors.Is(err, storage.ErrDuplicateKey))

	// The transaction must roll back the whole batch.
	got, err := store.GetByOwner(ctx, "team01")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFillStore_InvalidInput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewFillStore(pool)

	err := store.InsertBulk(context.Background(), []*domain.Fill{{FillID: ""}})
	assert.True(t, errors.Is(err, storage.ErrInvalidInput))
}
