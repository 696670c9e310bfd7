// Package strategy defines the callback seam between the tick loop and
// trading logic. One strategy instance serves one symbol for one day;
// the driver constructs instances from the registry by name.
package strategy

import (
	"context"

	"intraday-sim-lab/internal/domain"
	"intraday-sim-lab/internal/portfolio"
)

// OrderResult reports the outcome of a submission. A rejected order is
// a normal outcome, not an error: Accepted is false and Reason carries
// the rejection text.
type OrderResult struct {
	Accepted    bool
	OrderNumber string
	Reason      string
}

// Trader is the restricted view of the session a strategy trades
// through. Submissions are validated immediately; the error return is
// reserved for integration faults, such as submitting before any tick
// has been observed.
type Trader interface {
	// CashBalance returns the portfolio's current cash.
	CashBalance() float64

	// Holdings returns read-only lot views for the symbol.
	Holdings(symbol string) []portfolio.HoldingView

	// VolumeHeld returns the total volume held for the symbol.
	VolumeHeld(symbol string) int64

	// Summary returns the portfolio's current summary row.
	Summary() domain.PortfolioSummary

	// SubmitLimit validates and queues a limit order for the next tick.
	SubmitLimit(volume int64, price float64, side domain.Side) (OrderResult, error)

	// SubmitMarket validates an order and executes it against the
	// current tick synchronously.
	SubmitMarket(volume int64, price float64, side domain.Side) (OrderResult, error)
}

// Strategy receives every tick for its symbol and may trade through
// the Trader. Implementations keep their own per-day state.
type Strategy interface {
	OnTick(ctx context.Context, tick domain.Tick, trader Trader) error
	Name() string
}
