package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intraday-sim-lab/internal/costmodel"
	"intraday-sim-lab/internal/domain"
)

var sessionStart = time.Date(2025, 11, 10, 10, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return sessionStart.Add(time.Duration(minutes) * time.Minute)
}

// buyAt fills a buy at the given limit price through the cost model,
// the way the matching engine does.
func buyAt(p *Portfolio, symbol string, volume int64, price float64, ts time.Time) {
	unit := costmodel.UnitCost(volume, price, domain.SideBuy)
	p.Buy(symbol, volume, unit, price, ts)
}

func sellAt(p *Portfolio, symbol string, volume int64, price float64) error {
	unit := costmodel.UnitCost(volume, price, domain.SideSell)
	return p.Sell(symbol, volume, unit)
}

func TestBuy_DebitsExactCost(t *testing.T) {
	p := New("alpha")
	startCash := p.Cash()

	unit := costmodel.UnitCost(100, 58.00, domain.SideBuy)
	p.Buy("AOT", 100, unit, 58.00, at(0))

	require.InDelta(t, startCash-unit*100, p.Cash(), 1e-9)
	require.Equal(t, 1, p.NumHoldings())

	lots := p.Holdings("AOT")
	require.Len(t, lots, 1)
	assert.Equal(t, int64(100), lots[0].Volume)
	assert.InDelta(t, unit, lots[0].BuyPrice, 1e-9)
	assert.InDelta(t, 58.00, lots[0].MarkPrice, 1e-9)
}

func TestSell_FIFOAcrossLots(t *testing.T) {
	p := New("alpha")

	buyAt(p, "AOT", 100, 58.00, at(0))
	buyAt(p, "AOT", 200, 58.25, at(1))
	buyAt(p, "AOT", 300, 58.50, at(2))

	require.NoError(t, sellAt(p, "AOT", 200, 59.00))

	// Oldest lots are consumed first: all 100 of the first lot and 100
	// of the second, each realizing against its own all-in buy price.
	unit1 := costmodel.UnitCost(100, 58.00, domain.SideBuy)
	unit2 := costmodel.UnitCost(200, 58.25, domain.SideBuy)
	proceeds := costmodel.UnitCost(200, 59.00, domain.SideSell)
	want := (proceeds-unit1)*100 + (proceeds-unit2)*100

	assert.InDelta(t, want, p.Realized(), 1e-6)
	assert.InDelta(t, 35.65, p.Realized(), 0.01)

	assert.Equal(t, int64(400), p.TotalVolume("AOT"))
	lots := p.Holdings("AOT")
	require.Len(t, lots, 2)
	assert.Equal(t, int64(100), lots[0].Volume) // second lot partially consumed
	assert.Equal(t, int64(300), lots[1].Volume)
}

func TestSell_WinCountedOncePerReduction(t *testing.T) {
	p := New("alpha")

	buyAt(p, "AOT", 100, 58.00, at(0))
	buyAt(p, "AOT", 100, 58.00, at(1))
	buyAt(p, "AOT", 100, 58.00, at(2))

	// One profitable reduction spanning all three lots.
	require.NoError(t, sellAt(p, "AOT", 300, 60.00))

	assert.Equal(t, 1, p.Wins())
	assert.Equal(t, 1, p.Sells())
	assert.Equal(t, 0, p.NumHoldings())
}

func TestSell_LossDoesNotCountWin(t *testing.T) {
	p := New("alpha")

	buyAt(p, "AOT", 100, 58.00, at(0))
	require.NoError(t, sellAt(p, "AOT", 100, 56.00))

	assert.Equal(t, 0, p.Wins())
	assert.Equal(t, 1, p.Sells())
	assert.Less(t, p.Realized(), 0.0)
}

func TestSell_ExceedsHeldVolume(t *testing.T) {
	p := New("alpha")
	buyAt(p, "AOT", 100, 58.00, at(0))

	err := sellAt(p, "AOT", 200, 58.00)
	require.ErrorIs(t, err, ErrReduceExceedsHolding)

	// State untouched by the failed reduction.
	assert.Equal(t, int64(100), p.TotalVolume("AOT"))
	assert.Equal(t, 0, p.Sells())
}

func TestSell_CreditsProceeds(t *testing.T) {
	p := New("alpha")
	buyAt(p, "AOT", 100, 58.00, at(0))
	cashBefore := p.Cash()

	proceeds := costmodel.UnitCost(100, 59.00, domain.SideSell)
	require.NoError(t, p.Sell("AOT", 100, proceeds))

	assert.InDelta(t, cashBefore+proceeds*100, p.Cash(), 1e-9)
}

func TestLIFOSelection(t *testing.T) {
	p := New("alpha", WithLotSelection(LIFO))

	buyAt(p, "AOT", 100, 58.00, at(0))
	buyAt(p, "AOT", 100, 58.50, at(1))

	require.NoError(t, sellAt(p, "AOT", 100, 59.00))

	// The newest lot is consumed; the oldest remains.
	lots := p.Holdings("AOT")
	require.Len(t, lots, 1)
	unit1 := costmodel.UnitCost(100, 58.00, domain.SideBuy)
	assert.InDelta(t, unit1, lots[0].BuyPrice, 1e-9)
}

func TestRefreshMarketPrices_NAVAndWatermarks(t *testing.T) {
	p := New("alpha")
	buyAt(p, "AOT", 100, 58.00, at(0))

	p.RefreshMarketPrices(map[string]float64{"AOT": 60.00})
	navHigh := p.NAV()
	assert.InDelta(t, p.Cash()+60.00*100, navHigh, 1e-9)

	s := p.Summary()
	assert.InDelta(t, navHigh, s.MaxNAV, 1e-9)

	// Drop: min NAV and drawdown move, max NAV holds.
	p.RefreshMarketPrices(map[string]float64{"AOT": 55.00})
	s = p.Summary()
	assert.InDelta(t, navHigh, s.MaxNAV, 1e-9)
	assert.Less(t, s.MinNAV, s.MaxNAV)
	assert.Less(t, s.MaxDrawdownPct, 0.0)

	// Recovery within the old range must not shrink the drawdown.
	ddWorst := s.MaxDrawdownPct
	p.RefreshMarketPrices(map[string]float64{"AOT": 58.00})
	assert.InDelta(t, ddWorst, p.Summary().MaxDrawdownPct, 1e-9)
}

func TestDrawdown_CarriedFromSnapshot(t *testing.T) {
	p := New("alpha")
	buyAt(p, "AOT", 100, 58.00, at(0))
	p.RefreshMarketPrices(map[string]float64{"AOT": 60.00})
	p.RefreshMarketPrices(map[string]float64{"AOT": 55.00})
	carried := p.MaxDrawdown()
	require.Less(t, carried, 0.0)

	restored := FromSnapshot(p.Snapshot())

	// A mild next-day move must not improve the carried drawdown.
	restored.RefreshMarketPrices(map[string]float64{"AOT": 58.00})
	assert.InDelta(t, carried, restored.MaxDrawdown(), 1e-9)
}

func TestSnapshot_RoundTripIdempotent(t *testing.T) {
	p := New("alpha")
	buyAt(p, "AOT", 100, 58.00, at(0))
	buyAt(p, "PTT", 200, 31.25, at(1))
	require.NoError(t, sellAt(p, "AOT", 100, 59.00))
	buyAt(p, "AOT", 300, 58.50, at(3))
	p.RefreshMarketPrices(map[string]float64{"AOT": 58.75, "PTT": 31.00})

	snap := p.Snapshot()
	again := FromSnapshot(snap).Snapshot()

	assert.Equal(t, snap, again)
}

func TestSummary_Ratios(t *testing.T) {
	p := New("alpha")
	s := p.Summary()
	assert.Zero(t, s.WinRatePct)
	assert.Zero(t, s.CalmarRatio)
	assert.Zero(t, s.ReturnRatePct)

	buyAt(p, "AOT", 100, 58.00, at(0))
	require.NoError(t, sellAt(p, "AOT", 100, 60.00))
	require.NoError(t, func() error {
		buyAt(p, "AOT", 100, 58.00, at(1))
		return sellAt(p, "AOT", 100, 56.00)
	}())

	s = p.Summary()
	assert.Equal(t, 2, s.Sells)
	assert.Equal(t, 1, s.Wins)
	assert.InDelta(t, 50.0, s.WinRatePct, 1e-9)

	if s.MaxDrawdownPct != 0 {
		assert.InDelta(t, s.ReturnRatePct/-s.MaxDrawdownPct, s.CalmarRatio, 1e-9)
	}
}

func TestUnpricedResidual_UsesOrderPriceMark(t *testing.T) {
	// Before any market refresh, NAV marks new lots at their limit
	// price, so the canonical formula stays total.
	p := New("alpha")
	unit := costmodel.UnitCost(100, 58.00, domain.SideBuy)
	p.Buy("AOT", 100, unit, 58.00, at(0))

	assert.InDelta(t, p.Cash()+58.00*100, p.NAV(), 1e-9)
}
