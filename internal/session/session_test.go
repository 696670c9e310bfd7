package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intraday-sim-lab/internal/domain"
	"intraday-sim-lab/internal/portfolio"
	"intraday-sim-lab/internal/storage/memory"
	"intraday-sim-lab/internal/strategy"
	"intraday-sim-lab/internal/universe"
)

// scriptedStrategy submits a fixed sequence of orders, one per tick.
type scriptedStrategy struct {
	steps []func(trader strategy.Trader) error
	pos   int
}

func (s *scriptedStrategy) Name() string { return "scripted" }

func (s *scriptedStrategy) OnTick(_ context.Context, _ domain.Tick, trader strategy.Trader) error {
	if s.pos >= len(s.steps) {
		return nil
	}
	step := s.steps[s.pos]
	s.pos++
	if step == nil {
		return nil
	}
	return step(trader)
}

var scriptedSeq int

func registerScripted(t *testing.T, steps []func(strategy.Trader) error) string {
	t.Helper()
	scriptedSeq++
	name := fmt.Sprintf("scripted_%d", scriptedSeq)
	require.NoError(t, strategy.Register(name, func(strategy.Params) (strategy.Strategy, error) {
		return &scriptedStrategy{steps: steps}, nil
	}))
	return name
}

type stores struct {
	snapshots *memory.SnapshotStore
	fills     *memory.FillStore
	summaries *memory.SummaryStore
}

func newStores() stores {
	return stores{
		snapshots: memory.NewSnapshotStore(),
		fills:     memory.NewFillStore(),
		summaries: memory.NewSummaryStore(),
	}
}

func (st stores) config(owner, strategyName string) Config {
	return Config{
		Owner:        owner,
		StrategyName: strategyName,
		Snapshots:    st.snapshots,
		Fills:        st.fills,
		Summaries:    st.summaries,
		Clock: func() time.Time {
			return time.Date(2024, 3, 11, 17, 0, 0, 0, time.UTC)
		},
	}
}

func day(hhmmss string) time.Time {
	ts, err := time.Parse("2006-01-02 15:04:05", "2024-03-11 "+hhmmss)
	if err != nil {
		panic(err)
	}
	return ts
}

func feedTick(symbol string, price float64, volume int64, flag domain.TickFlag, at time.Time) *domain.Tick {
	return &domain.Tick{Symbol: symbol, Time: at, Price: price, Volume: volume, Flag: flag}
}

func TestSession_FreshPortfolio(t *testing.T) {
	universe.SetSymbols([]string{"AOT"})
	t.Cleanup(universe.Reset)

	sess, err := New(context.Background(), newStores().config("team01", "noop"))
	require.NoError(t, err)
	assert.InDelta(t, portfolio.DefaultInitialCapital, sess.Portfolio().Cash(), 1e-9)
}

func TestSession_UnknownStrategyFailsFast(t *testing.T) {
	_, err := New(context.Background(), newStores().config("team01", "definitely-missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, strategy.ErrUnknownStrategy)
}

func TestSession_FullDay_BuyThenSell(t *testing.T) {
	universe.SetSymbols([]string{"AOT"})
	t.Cleanup(universe.Reset)

	name := registerScripted(t, []func(strategy.Trader) error{
		nil, // first tick only observed, builds feed volume
		func(tr strategy.Trader) error {
			res, err := tr.SubmitLimit(100, 58.0, domain.SideBuy)
			if err != nil {
				return err
			}
			if !res.Accepted {
				t.Errorf("buy not accepted: %s", res.Reason)
			}
			return nil
		},
		nil,
		func(tr strategy.Trader) error {
			res, err := tr.SubmitLimit(100, 59.0, domain.SideSell)
			if err != nil {
				return err
			}
			if !res.Accepted {
				t.Errorf("sell not accepted: %s", res.Reason)
			}
			return nil
		},
	})

	st := newStores()
	sess, err := New(context.Background(), st.config("team01", name))
	require.NoError(t, err)

	ticks := []*domain.Tick{
		feedTick("AOT", 58.00, 10_000, domain.TickFlagSell, day("10:00:00")),
		// Buy at 58.00 submitted and filled on this tick.
		feedTick("AOT", 58.00, 5_000, domain.TickFlagBuy, day("10:00:05")),
		feedTick("AOT", 58.00, 2_000, domain.TickFlagSell, day("10:00:10")),
		// Sell at 59.00 submitted and filled on this tick.
		feedTick("AOT", 59.25, 3_000, domain.TickFlagBuy, day("10:30:00")),
		feedTick("AOT", 59.25, 1_000, domain.TickFlagSell, day("10:30:05")),
	}

	sessionDate := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	summary, err := sess.Run(context.Background(), sessionDate, ticks)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.NumHoldings)
	assert.Equal(t, 1, summary.Sells)
	assert.Equal(t, 1, summary.Wins)
	assert.Positive(t, summary.Realized)

	fills, err := st.fills.GetByOwner(context.Background(), "team01")
	require.NoError(t, err)
	require.Len(t, fills, 2)
	assert.Equal(t, domain.SideBuy, fills[0].Side)
	assert.InDelta(t, 58.25, fills[0].Price, 1e-9)
	assert.Equal(t, domain.SideSell, fills[1].Side)
	assert.InDelta(t, 58.75, fills[1].Price, 1e-9)

	snap, err := st.snapshots.Load(context.Background(), "team01")
	require.NoError(t, err)
	assert.Empty(t, snap.Holdings)
	assert.Equal(t, 1, snap.Sells)

	summaries, err := st.summaries.GetByOwner(context.Background(), "team01")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].SessionDate.Equal(sessionDate))
}

func TestSession_RejectionsDedupedAndNonFatal(t *testing.T) {
	universe.SetSymbols([]string{"AOT"})
	t.Cleanup(universe.Reset)

	name := registerScripted(t, []func(strategy.Trader) error{
		func(tr strategy.Trader) error {
			res, err := tr.SubmitLimit(150, 58.0, domain.SideBuy)
			if err != nil {
				return err
			}
			if res.Accepted {
				t.Error("odd lot unexpectedly accepted")
			}
			return nil
		},
		func(tr strategy.Trader) error {
			_, err := tr.SubmitLimit(150, 58.0, domain.SideBuy)
			return err
		},
		func(tr strategy.Trader) error {
			_, err := tr.SubmitLimit(100, 58.0, domain.SideSell)
			return err
		},
	})

	st := newStores()
	sess, err := New(context.Background(), st.config("team01", name))
	require.NoError(t, err)

	ticks := []*domain.Tick{
		feedTick("AOT", 58.00, 1_000, domain.TickFlagSell, day("10:00:00")),
		feedTick("AOT", 58.00, 1_000, domain.TickFlagSell, day("10:00:05")),
		feedTick("AOT", 58.00, 1_000, domain.TickFlagSell, day("10:00:10")),
	}

	_, err = sess.Run(context.Background(), time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), ticks)
	require.NoError(t, err)

	rejections := sess.Rejections()
	require.Len(t, rejections, 2)
	assert.Equal(t, 2, rejections[0].Count)
	assert.Contains(t, rejections[0].Reason, "multiple of 100")
	assert.Equal(t, 1, rejections[1].Count)
	assert.Contains(t, rejections[1].Reason, "not in the portfolio")
}

func TestSession_SkipsNonUniverseAndOpenTicks(t *testing.T) {
	universe.SetSymbols([]string{"AOT"})
	t.Cleanup(universe.Reset)

	st := newStores()
	sess, err := New(context.Background(), st.config("team01", "noop"))
	require.NoError(t, err)

	ticks := []*domain.Tick{
		feedTick("ZZZZ", 10.00, 1_000, domain.TickFlagSell, day("10:00:00")),
		feedTick("AOT", 58.00, 1_000, domain.TickFlagOpen, day("10:00:01")),
		feedTick("AOT", 58.00, 1_000, domain.TickFlagSell, day("10:00:02")),
	}

	_, err = sess.Run(context.Background(), time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), ticks)
	require.NoError(t, err)

	// Only the third tick reaches a handler.
	require.Len(t, sess.handlers, 1)
	h := sess.handlers["AOT"]
	assert.Equal(t, int64(1_000), h.cumSellVolume)
	assert.Equal(t, int64(0), h.cumBuyVolume)
}

func TestSession_RestoresSnapshotAcrossDays(t *testing.T) {
	universe.SetSymbols([]string{"AOT"})
	t.Cleanup(universe.Reset)

	st := newStores()

	buyName := registerScripted(t, []func(strategy.Trader) error{
		nil,
		func(tr strategy.Trader) error {
			_, err := tr.SubmitLimit(100, 58.0, domain.SideBuy)
			return err
		},
		nil,
	})

	day1 := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	sess1, err := New(context.Background(), st.config("team01", buyName))
	require.NoError(t, err)
	_, err = sess1.Run(context.Background(), day1, []*domain.Tick{
		feedTick("AOT", 58.00, 10_000, domain.TickFlagSell, day("10:00:00")),
		feedTick("AOT", 58.00, 1_000, domain.TickFlagSell, day("10:00:05")),
		feedTick("AOT", 58.00, 1_000, domain.TickFlagSell, day("10:00:10")),
	})
	require.NoError(t, err)
	require.Equal(t, int64(100), sess1.Portfolio().TotalVolume("AOT"))

	// Day two restores the holding and starts cash from the reduced
	// balance.
	sess2, err := New(context.Background(), st.config("team01", "noop"))
	require.NoError(t, err)
	assert.Equal(t, int64(100), sess2.Portfolio().TotalVolume("AOT"))
	assert.InDelta(t, sess1.Portfolio().Cash(), sess2.Portfolio().Cash(), 1e-9)
	assert.Less(t, sess2.Portfolio().Cash(), portfolio.DefaultInitialCapital)
}

func TestHandler_OrderBeforeFirstTick(t *testing.T) {
	universe.SetSymbols([]string{"AOT"})
	t.Cleanup(universe.Reset)

	sess, err := New(context.Background(), newStores().config("team01", "noop"))
	require.NoError(t, err)

	h, err := sess.handler("AOT")
	require.NoError(t, err)

	_, err = h.SubmitLimit(100, 58.0, domain.SideBuy)
	assert.ErrorIs(t, err, ErrNoTickObserved)

	_, err = h.SubmitMarket(100, 58.0, domain.SideBuy)
	assert.ErrorIs(t, err, ErrNoTickObserved)
}

func TestHandler_ZeroVolumeIsNoOp(t *testing.T) {
	universe.SetSymbols([]string{"AOT"})
	t.Cleanup(universe.Reset)

	sess, err := New(context.Background(), newStores().config("team01", "noop"))
	require.NoError(t, err)

	h, err := sess.handler("AOT")
	require.NoError(t, err)
	h.observe(feedTick("AOT", 58.00, 1_000, domain.TickFlagSell, day("10:00:00")))

	res, err := h.SubmitLimit(0, 58.0, domain.SideBuy)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Empty(t, res.Reason)
}

func TestSession_ContextCancellation(t *testing.T) {
	universe.SetSymbols([]string{"AOT"})
	t.Cleanup(universe.Reset)

	sess, err := New(context.Background(), newStores().config("team01", "noop"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = sess.Run(ctx, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), []*domain.Tick{
		feedTick("AOT", 58.00, 1_000, domain.TickFlagSell, day("10:00:00")),
	})
	assert.ErrorIs(t, err, context.Canceled)
}
