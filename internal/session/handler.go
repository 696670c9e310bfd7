package session

import (
	"errors"

	"intraday-sim-lab/internal/domain"
	"intraday-sim-lab/internal/engine"
	"intraday-sim-lab/internal/portfolio"
	"intraday-sim-lab/internal/strategy"
)

// ErrNoTickObserved is returned when a strategy submits an order for a
// symbol before any tick for it has arrived.
var ErrNoTickObserved = errors.New("no tick observed for symbol yet")

// Handler serves one symbol for one session day. It accumulates the
// feed's buy and sell volume for the liquidity caps and is the Trader
// the symbol's strategy trades through.
type Handler struct {
	symbol  string
	session *Session
	strat   strategy.Strategy

	cumBuyVolume  int64
	cumSellVolume int64

	lastTick domain.Tick
	tickSeen bool
}

func newHandler(symbol string, sess *Session, strat strategy.Strategy) *Handler {
	return &Handler{symbol: symbol, session: sess, strat: strat}
}

// observe folds a tick into the cumulative feed volumes. Runs before
// the strategy callback so the caps include the current tick.
func (h *Handler) observe(tick *domain.Tick) {
	switch tick.Flag {
	case domain.TickFlagBuy:
		h.cumBuyVolume += tick.Volume
	case domain.TickFlagSell:
		h.cumSellVolume += tick.Volume
	}
	h.lastTick = *tick
	h.tickSeen = true
}

// CashBalance returns the portfolio's current cash.
func (h *Handler) CashBalance() float64 {
	return h.session.portfolio.Cash()
}

// Holdings returns read-only lot views for the symbol.
func (h *Handler) Holdings(symbol string) []portfolio.HoldingView {
	return h.session.portfolio.Holdings(symbol)
}

// VolumeHeld returns the total volume held for the symbol.
func (h *Handler) VolumeHeld(symbol string) int64 {
	return h.session.portfolio.TotalVolume(symbol)
}

// Summary returns the portfolio's current summary row.
func (h *Handler) Summary() domain.PortfolioSummary {
	return h.session.portfolio.Summary()
}

// SubmitLimit validates and queues a limit order for the next tick.
// A zero volume is a no-op, not a rejection.
func (h *Handler) SubmitLimit(volume int64, price float64, side domain.Side) (strategy.OrderResult, error) {
	if volume == 0 {
		return strategy.OrderResult{}, nil
	}
	if !h.tickSeen {
		return strategy.OrderResult{}, ErrNoTickObserved
	}

	order, err := h.newOrder(volume, price, side)
	if err != nil {
		return h.session.rejected(h.symbol, err)
	}

	h.session.engine.Submit(order)
	h.session.orderSubmitted()
	return strategy.OrderResult{Accepted: true, OrderNumber: order.Number}, nil
}

// SubmitMarket validates an order and executes it against the current
// tick synchronously. An incompatible tick drops the order without a
// fill, mirroring the pending-order path.
func (h *Handler) SubmitMarket(volume int64, price float64, side domain.Side) (strategy.OrderResult, error) {
	if volume == 0 {
		return strategy.OrderResult{}, nil
	}
	if !h.tickSeen {
		return strategy.OrderResult{}, ErrNoTickObserved
	}

	order, err := h.newOrder(volume, price, side)
	if err != nil {
		return h.session.rejected(h.symbol, err)
	}
	h.session.orderSubmitted()

	filled, err := h.session.engine.ExecuteMarket(order, &h.lastTick)
	if err != nil {
		return strategy.OrderResult{}, err
	}
	if !filled {
		return strategy.OrderResult{OrderNumber: order.Number, Reason: "no compatible tick for market order"}, nil
	}
	return strategy.OrderResult{Accepted: true, OrderNumber: order.Number}, nil
}

func (h *Handler) newOrder(volume int64, price float64, side domain.Side) (*engine.Order, error) {
	return engine.NewOrder(
		h.session.portfolio,
		volume, price, side, h.symbol,
		h.cumSellVolume, h.cumBuyVolume,
		h.lastTick.Time,
	)
}

var _ strategy.Trader = (*Handler)(nil)
