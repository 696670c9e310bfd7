package strategy

import (
	"context"
	"math"

	"intraday-sim-lab/internal/domain"
	"intraday-sim-lab/internal/portfolio"
)

// Session clock boundaries for new entries and forced liquidation,
// minutes from midnight in the tick's local time.
const (
	noEntryAfterMinute  = 16*60 + 20
	liquidateFromMinute = 16*60 + 25
)

// VWAPReversion buys dips below the running volume-weighted average
// price and exits at the average or at a stop below the entry basis.
// Open positions are liquidated near the close.
type VWAPReversion struct {
	DiscountPct float64
	StopLossPct float64
	OrderVolume int64

	sumPV  float64
	sumVol float64
}

// NewVWAPReversion constructs the strategy from config params:
// discount_pct, stop_loss_pct, order_volume.
func NewVWAPReversion(params Params) (Strategy, error) {
	discount, ok := params["discount_pct"]
	if !ok {
		return nil, ErrMissingDiscountPct
	}
	if discount <= 0 {
		return nil, ErrInvalidDiscountPct
	}
	stop, ok := params["stop_loss_pct"]
	if !ok {
		return nil, ErrMissingStopLossPct
	}
	if stop <= 0 {
		return nil, ErrInvalidStopLossPct
	}
	rawVolume, ok := params["order_volume"]
	if !ok {
		return nil, ErrMissingOrderVolume
	}
	volume := int64(rawVolume)
	if volume <= 0 || volume%100 != 0 || float64(volume) != rawVolume {
		return nil, ErrInvalidOrderVolume
	}

	return &VWAPReversion{
		DiscountPct: discount,
		StopLossPct: stop,
		OrderVolume: volume,
	}, nil
}

func (s *VWAPReversion) Name() string { return "vwap_reversion" }

func (s *VWAPReversion) OnTick(_ context.Context, tick domain.Tick, trader Trader) error {
	s.sumPV += tick.Price * float64(tick.Volume)
	s.sumVol += float64(tick.Volume)
	if s.sumVol == 0 {
		return nil
	}
	vwap := s.sumPV / s.sumVol

	minute := tick.Time.Hour()*60 + tick.Time.Minute()
	held := trader.VolumeHeld(tick.Symbol)

	// Forced liquidation window: dump everything at market.
	if minute >= liquidateFromMinute {
		if held > 0 {
			_, err := trader.SubmitMarket(held, tick.Price, domain.SideSell)
			return err
		}
		return nil
	}

	if held > 0 {
		basis := avgBuyPrice(trader.Holdings(tick.Symbol))

		// Stop loss bails at market below the all-in basis.
		if basis > 0 && tick.Price <= basis*(1-s.StopLossPct) {
			_, err := trader.SubmitMarket(held, tick.Price, domain.SideSell)
			return err
		}

		// Take profit once price reverts to the average.
		if tick.Price >= vwap {
			_, err := trader.SubmitLimit(held, tick.Price, domain.SideSell)
			return err
		}
		return nil
	}

	if minute >= noEntryAfterMinute {
		return nil
	}

	// Entry: price dipped at least discount_pct below the running VWAP.
	if tick.Price <= vwap*(1-s.DiscountPct) {
		_, err := trader.SubmitLimit(s.OrderVolume, tick.Price, domain.SideBuy)
		return err
	}
	return nil
}

// avgBuyPrice returns the volume-weighted all-in basis over the lots,
// or 0 when no lots are held.
func avgBuyPrice(lots []portfolio.HoldingView) float64 {
	var cost, vol float64
	for _, lot := range lots {
		cost += lot.BuyPrice * float64(lot.Volume)
		vol += float64(lot.Volume)
	}
	if vol == 0 {
		return 0
	}
	basis := cost / vol
	if math.IsNaN(basis) {
		return 0
	}
	return basis
}

var _ Strategy = (*VWAPReversion)(nil)
