package engine

import (
	"fmt"
	"sync/atomic"
	"time"

	"intraday-sim-lab/internal/costmodel"
	"intraday-sim-lab/internal/domain"
	"intraday-sim-lab/internal/portfolio"
	"intraday-sim-lab/internal/universe"
)

// Rejection is a business-rule order rejection: an expected, frequent
// outcome surfaced to the strategy, never a fatal fault.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string { return r.Reason }

func reject(format string, args ...any) *Rejection {
	return &Rejection{Reason: fmt.Sprintf(format, args...)}
}

// orderSeq is the process-wide order sequence. Tests reset it for
// deterministic order numbers.
var orderSeq atomic.Int64

// ResetOrderCounter restarts order numbering from 1.
func ResetOrderCounter() {
	orderSeq.Store(0)
}

func nextOrderNumber() string {
	return fmt.Sprintf("ORD%05d", orderSeq.Add(1))
}

// Order is a validated trade intent bound to one portfolio. A nil
// error from NewOrder means the order passed the full validation
// checklist; it then lives in the engine's pending book until the next
// tick fills or drops it.
type Order struct {
	Number        string
	Volume        int64
	Price         float64
	Side          domain.Side
	Symbol        string
	CumSellVolume int64
	CumBuyVolume  int64
	Timestamp     time.Time

	owner *portfolio.Portfolio
}

// NewOrder validates and constructs an order. Checks run in a fixed
// sequence and the first failure determines the rejection reason:
//  1. volume is a positive multiple of 100 (lot size)
//  2. side is exactly Buy or Sell
//  3. symbol is in the reference universe
//  4. buys: cash covers the worst-case all-in cost
//  5. sells: the portfolio holds at least the requested volume
//  6. buys: volume does not exceed cumulative sell-side feed volume
//  7. sells: volume does not exceed cumulative buy-side feed volume
func NewOrder(
	owner *portfolio.Portfolio,
	volume int64,
	price float64,
	side domain.Side,
	symbol string,
	cumSellVolume, cumBuyVolume int64,
	ts time.Time,
) (*Order, error) {
	if volume <= 0 || volume%100 != 0 {
		return nil, reject("volume %d must be a positive multiple of 100", volume)
	}
	if !side.Valid() {
		return nil, reject("invalid side %q: must be %q or %q (case sensitive)",
			string(side), domain.SideBuy, domain.SideSell)
	}
	if !universe.Contains(symbol) {
		return nil, reject("symbol %q is not in SET50", symbol)
	}
	if side == domain.SideBuy && !costmodel.CanAfford(volume, price, owner.Cash()) {
		return nil, reject("insufficient cash balance to cover transaction costs")
	}
	if side == domain.SideSell && !owner.HasVolume(symbol, volume) {
		return nil, reject("cannot sell %s: not in the portfolio or insufficient volume", symbol)
	}
	if side == domain.SideBuy && volume > cumSellVolume {
		return nil, reject("buy volume exceeds the cumulative sell volume from the daily ticks")
	}
	if side == domain.SideSell && volume > cumBuyVolume {
		return nil, reject("sell volume exceeds the cumulative buy volume from the daily ticks")
	}

	return &Order{
		Number:        nextOrderNumber(),
		Volume:        volume,
		Price:         price,
		Side:          side,
		Symbol:        symbol,
		CumSellVolume: cumSellVolume,
		CumBuyVolume:  cumBuyVolume,
		Timestamp:     ts,
		owner:         owner,
	}, nil
}

// Owner returns the portfolio the order is bound to.
func (o *Order) Owner() *portfolio.Portfolio { return o.owner }
