// Package engine holds pending limit orders and decides, on each
// incoming tick, whether they execute. There is no price-level book:
// every pending order is resolved against the next tick, filling when
// the tick's trade price is compatible with the order's limit plus its
// slippage allowance, and dropping without a fill otherwise. Market
// orders follow the same fill semantics but are checked synchronously
// against the current tick and never enter the pending book.
package engine

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"intraday-sim-lab/internal/costmodel"
	"intraday-sim-lab/internal/domain"
	"intraday-sim-lab/internal/idhash"
)

// IsRejection reports whether err is a business-rule order rejection
// as opposed to an invariant violation or data fault.
func IsRejection(err error) bool {
	var r *Rejection
	return errors.As(err, &r)
}

// FillSink receives one record per executed order.
type FillSink interface {
	RecordFill(fill domain.Fill)
}

// Engine matches pending orders against the tick stream and applies
// fills to the owning portfolios. A coarse lock guards submission and
// match evaluation; the steady state is one sequential pass per day.
type Engine struct {
	mu      sync.Mutex
	pending []*Order
	sink    FillSink
	logger  *zap.Logger
}

// New creates a matching engine. sink may be nil when fills need no
// logging (tests).
func New(sink FillSink, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{sink: sink, logger: logger}
}

// Submit admits a validated order to the pending book. No match is
// attempted until the next tick.
func (e *Engine) Submit(o *Order) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = append(e.pending, o)
}

// PendingCount returns the number of orders awaiting a tick.
func (e *Engine) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// OnTick resolves every pending order against the incoming tick, in
// submission order: each order either fills or is dropped without a
// fill. An error from a fill is an invariant violation and aborts the
// pass.
func (e *Engine) OnTick(tick *domain.Tick) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.pending) == 0 {
		return nil
	}

	pending := e.pending
	e.pending = nil

	for _, o := range pending {
		if !matchable(o, tick) {
			e.logger.Debug("order dropped",
				zap.String("order", o.Number),
				zap.String("symbol", o.Symbol),
				zap.String("tick_symbol", tick.Symbol),
				zap.Float64("tick_price", tick.Price),
			)
			continue
		}
		if err := e.fill(o); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteMarket checks a market order against the current tick and
// fills it synchronously. Returns false when the tick is not
// compatible; the order is discarded either way.
func (e *Engine) ExecuteMarket(o *Order, tick *domain.Tick) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !matchable(o, tick) {
		return false, nil
	}
	if err := e.fill(o); err != nil {
		return false, err
	}
	return true, nil
}

// matchable reports whether the tick can execute the order: same
// symbol, tick not older than the order, and the traded price within
// the order's limit adjusted by one tick increment.
func matchable(o *Order, tick *domain.Tick) bool {
	if tick.Symbol != o.Symbol {
		return false
	}
	if tick.Time.Before(o.Timestamp) {
		return false
	}
	inc := costmodel.TickIncrement(o.Price)
	switch o.Side {
	case domain.SideBuy:
		return tick.Price <= o.Price+inc
	case domain.SideSell:
		return tick.Price >= o.Price-inc
	}
	return false
}

// fill executes the order through the cost model and mutates the
// owning portfolio. The recorded fill price is the slipped execution
// price before commission and VAT.
func (e *Engine) fill(o *Order) error {
	unit := costmodel.UnitCost(o.Volume, o.Price, o.Side)
	inc := costmodel.TickIncrement(o.Price)

	var slipped float64
	switch o.Side {
	case domain.SideBuy:
		slipped = o.Price + inc
		o.owner.Buy(o.Symbol, o.Volume, unit, o.Price, o.Timestamp)
	case domain.SideSell:
		slipped = o.Price - inc
		if err := o.owner.Sell(o.Symbol, o.Volume, unit); err != nil {
			return err
		}
	}

	fill := domain.Fill{
		FillID:      idhash.ComputeFillID(o.owner.Owner(), o.Number, o.Symbol, o.Timestamp.UnixMilli()),
		OrderNumber: o.Number,
		Owner:       o.owner.Owner(),
		Symbol:      o.Symbol,
		Side:        o.Side,
		Volume:      o.Volume,
		Price:       slipped,
		Time:        o.Timestamp,
	}
	if e.sink != nil {
		e.sink.RecordFill(fill)
	}

	e.logger.Info("order filled",
		zap.String("order", o.Number),
		zap.String("owner", fill.Owner),
		zap.String("symbol", o.Symbol),
		zap.String("side", string(o.Side)),
		zap.Int64("volume", o.Volume),
		zap.Float64("price", slipped),
	)
	return nil
}
