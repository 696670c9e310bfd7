// Package portfolio implements the simulated account: cash, open lots,
// realized P&L and NAV/drawdown tracking. Lots are consumed with a
// pluggable selection policy (FIFO by default). Reducing more volume
// than held is an invariant violation and fails loudly; order
// validation upstream is the gatekeeper that keeps it from happening.
package portfolio

import (
	"errors"
	"sort"
	"time"

	"intraday-sim-lab/internal/domain"
)

// DefaultInitialCapital is the starting cash of a fresh portfolio.
const DefaultInitialCapital = 10_000_000.0

// ErrReduceExceedsHolding is returned when a sell reduction asks for
// more volume than the portfolio holds. This indicates a programming
// error, not a bad order: validation must reject such orders first.
var ErrReduceExceedsHolding = errors.New("reduce volume exceeds held volume")

// LotSelection orders lots in-place for consumption by a sell
// reduction. The default is FIFO by buy time.
type LotSelection func(lots []*Holding)

// FIFO consumes the oldest lots first (first in, first out cost basis).
func FIFO(lots []*Holding) {
	sort.SliceStable(lots, func(i, j int) bool {
		return lots[i].buyTime.Before(lots[j].buyTime)
	})
}

// LIFO consumes the newest lots first.
func LIFO(lots []*Holding) {
	sort.SliceStable(lots, func(i, j int) bool {
		return lots[i].buyTime.After(lots[j].buyTime)
	})
}

// Portfolio is one simulated account. It is not safe for concurrent
// use; the engine serializes access per trading session.
type Portfolio struct {
	owner          string
	cash           float64
	cashStart      float64
	initialCapital float64
	holdings       []*Holding
	selection      LotSelection

	realized      float64
	totalCost     float64
	unrealized    float64
	unrealizedPct float64
	nav           float64

	maxNAV  float64
	minNAV  float64
	navSeen bool

	maxDrawdown  float64 // percent, <= 0, carried across days
	ddCarry      float64
	ddCarrySet   bool

	wins  int
	sells int
}

// Option configures a Portfolio at construction.
type Option func(*Portfolio)

// WithLotSelection replaces the default FIFO lot consumption policy.
func WithLotSelection(sel LotSelection) Option {
	return func(p *Portfolio) { p.selection = sel }
}

// New creates a fresh portfolio with the default initial capital.
func New(owner string, opts ...Option) *Portfolio {
	p := &Portfolio{
		owner:          owner,
		cash:           DefaultInitialCapital,
		cashStart:      DefaultInitialCapital,
		initialCapital: DefaultInitialCapital,
		selection:      FIFO,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FromSnapshot restores a portfolio persisted at a previous day end.
// NAV watermarks restart with the new session; only the drawdown
// carry-over survives.
func FromSnapshot(snap *domain.PortfolioSnapshot, opts ...Option) *Portfolio {
	p := &Portfolio{
		owner:          snap.Owner,
		cash:           snap.Cash,
		cashStart:      snap.CashStart,
		initialCapital: DefaultInitialCapital,
		selection:      FIFO,
		realized:       snap.Realized,
		wins:           snap.Wins,
		sells:          snap.Sells,
	}
	if snap.PrevDayMaxDD != nil {
		p.ddCarry = *snap.PrevDayMaxDD
		p.ddCarrySet = true
		p.maxDrawdown = p.ddCarry
	}
	for _, hs := range snap.Holdings {
		p.holdings = append(p.holdings, &Holding{
			symbol:      hs.Symbol,
			startVolume: hs.StartVolume,
			volume:      hs.Volume,
			buyPrice:    hs.BuyPrice,
			markPrice:   hs.MarkPrice,
			realized:    hs.Realized,
			buyTime:     hs.BuyTime,
		})
	}
	for _, sym := range p.heldSymbols() {
		p.refreshSymbol(sym)
	}
	p.recomputeTotals()
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Snapshot returns the durable state of the portfolio. Mark-to-market
// aggregates are omitted; they are rebuilt from the next session's
// ticks.
func (p *Portfolio) Snapshot() *domain.PortfolioSnapshot {
	snap := &domain.PortfolioSnapshot{
		Owner:     p.owner,
		Cash:      p.cash,
		CashStart: p.cashStart,
		Realized:  p.realized,
		Wins:      p.wins,
		Sells:     p.sells,
	}
	if p.ddCarrySet {
		dd := p.ddCarry
		snap.PrevDayMaxDD = &dd
	}
	for _, h := range p.holdings {
		snap.Holdings = append(snap.Holdings, domain.HoldingSnapshot{
			Symbol:      h.symbol,
			StartVolume: h.startVolume,
			Volume:      h.volume,
			BuyPrice:    h.buyPrice,
			MarkPrice:   h.markPrice,
			Realized:    h.realized,
			BuyTime:     h.buyTime,
		})
	}
	return snap
}

// StartSession rolls the cash-at-session-start marker at the beginning
// of a trading day.
func (p *Portfolio) StartSession() {
	p.cashStart = p.cash
}

// Buy records a filled buy order: a new lot at the all-in per-unit
// cost, cash debited for the full amount. markPrice is the order's
// limit price, the lot's mark until the next market refresh.
func (p *Portfolio) Buy(symbol string, volume int64, unitCost, markPrice float64, ts time.Time) {
	p.holdings = append(p.holdings, &Holding{
		symbol:      symbol,
		startVolume: volume,
		volume:      volume,
		buyPrice:    unitCost,
		markPrice:   markPrice,
		buyTime:     ts,
	})
	p.cash -= unitCost * float64(volume)
	p.refreshSymbol(symbol)
	p.updateTotals()
}

// Sell records a filled sell order: lots of symbol are consumed by the
// selection policy (oldest first under FIFO), splitting across lots as
// needed. Realized P&L accrues per unit against each lot's own buy
// price; the win/sell counters advance once for the whole reduction.
// Cash is credited with the all-in proceeds.
func (p *Portfolio) Sell(symbol string, volume int64, unitProceeds float64) error {
	if volume > p.TotalVolume(symbol) {
		return ErrReduceExceedsHolding
	}

	// Win or loss is decided once for the whole reduction, against the
	// symbol's average cost over the volume sold.
	if unitProceeds*float64(volume) > p.avgCost(symbol)*float64(volume) {
		p.wins++
	}
	p.sells++

	p.selection(p.holdings)

	remaining := volume
	kept := p.holdings[:0]
	for _, h := range p.holdings {
		if remaining > 0 && h.symbol == symbol {
			take := remaining
			if h.volume < take {
				take = h.volume
			}
			gain := (unitProceeds - h.buyPrice) * float64(take)
			p.realized += gain
			h.realized += gain
			h.reduce(take)
			remaining -= take
			if h.volume <= 0 {
				continue // depleted lot leaves the portfolio
			}
		}
		kept = append(kept, h)
	}
	p.holdings = kept

	p.cash += unitProceeds * float64(volume)
	p.refreshSymbol(symbol)
	p.updateTotals()
	return nil
}

// RefreshMarketPrices re-marks every held symbol present in prices and
// refreshes NAV, watermarks and drawdown.
func (p *Portfolio) RefreshMarketPrices(prices map[string]float64) {
	for _, sym := range p.heldSymbols() {
		if price, ok := prices[sym]; ok {
			avg := p.avgCost(sym)
			for _, h := range p.holdings {
				if h.symbol == sym {
					h.remark(price, avg)
				}
			}
		}
	}
	p.updateTotals()
}

// refreshSymbol re-marks all lots of one symbol at their current mark
// prices using the symbol-wide average cost.
func (p *Portfolio) refreshSymbol(symbol string) {
	avg := p.avgCost(symbol)
	for _, h := range p.holdings {
		if h.symbol == symbol {
			h.remark(h.markPrice, avg)
		}
	}
}

// avgCost is the volume-weighted average all-in buy price over the
// remaining lots of symbol. Zero when nothing is held.
func (p *Portfolio) avgCost(symbol string) float64 {
	var volume int64
	var cost float64
	for _, h := range p.holdings {
		if h.symbol == symbol {
			volume += h.volume
			cost += h.buyPrice * float64(h.volume)
		}
	}
	if volume == 0 {
		return 0
	}
	return cost / float64(volume)
}

// recomputeTotals refreshes the portfolio aggregates without touching
// the NAV watermarks. NAV has a single canonical formula:
// cash plus mark-to-market value of all holdings.
func (p *Portfolio) recomputeTotals() {
	var totalCost, unrealized, marketValue float64
	for _, h := range p.holdings {
		totalCost += h.costBasis
		unrealized += h.unrealized
		marketValue += h.marketValue
	}
	p.totalCost = totalCost
	p.unrealized = unrealized
	if totalCost != 0 {
		p.unrealizedPct = unrealized / totalCost * 100
	} else {
		p.unrealizedPct = 0
	}
	p.nav = p.cash + marketValue
}

// updateTotals refreshes aggregates, then advances the max/min NAV
// watermarks and the carried max drawdown.
func (p *Portfolio) updateTotals() {
	p.recomputeTotals()

	if !p.navSeen || p.nav > p.maxNAV {
		p.maxNAV = p.nav
		p.minNAV = p.nav
		p.navSeen = true
	} else if p.nav < p.minNAV {
		p.minNAV = p.nav
	}

	if p.navSeen && p.maxNAV != 0 {
		dd := (p.minNAV - p.maxNAV) / p.maxNAV * 100
		carry := p.ddCarry // zero when never set
		if dd < carry {
			carry = dd
		}
		p.ddCarry = carry
		p.ddCarrySet = true
		p.maxDrawdown = carry
	}
}

// Owner returns the portfolio owner identifier.
func (p *Portfolio) Owner() string { return p.owner }

// Cash returns the current cash balance.
func (p *Portfolio) Cash() float64 { return p.cash }

// NAV returns cash plus mark-to-market value of all holdings.
func (p *Portfolio) NAV() float64 { return p.nav }

// Realized returns the cumulative realized P&L.
func (p *Portfolio) Realized() float64 { return p.realized }

// Unrealized returns the current unrealized P&L.
func (p *Portfolio) Unrealized() float64 { return p.unrealized }

// MaxDrawdown returns the carried max drawdown in percent (<= 0).
func (p *Portfolio) MaxDrawdown() float64 { return p.maxDrawdown }

// Wins returns the number of winning sell reductions.
func (p *Portfolio) Wins() int { return p.wins }

// Sells returns the number of sell reductions.
func (p *Portfolio) Sells() int { return p.sells }

// NumHoldings returns the number of open lots.
func (p *Portfolio) NumHoldings() int { return len(p.holdings) }

// Holdings returns read-only views of the lots held for symbol, in
// current book order.
func (p *Portfolio) Holdings(symbol string) []HoldingView {
	var views []HoldingView
	for _, h := range p.holdings {
		if h.symbol == symbol {
			views = append(views, h.view())
		}
	}
	return views
}

// AllHoldings returns read-only views of every open lot.
func (p *Portfolio) AllHoldings() []HoldingView {
	views := make([]HoldingView, 0, len(p.holdings))
	for _, h := range p.holdings {
		views = append(views, h.view())
	}
	return views
}

// TotalVolume returns the total remaining volume held for symbol.
func (p *Portfolio) TotalVolume(symbol string) int64 {
	var total int64
	for _, h := range p.holdings {
		if h.symbol == symbol {
			total += h.volume
		}
	}
	return total
}

// HasVolume reports whether at least volume shares of symbol are held.
func (p *Portfolio) HasVolume(symbol string, volume int64) bool {
	return p.TotalVolume(symbol) >= volume
}

// AvgCost returns the volume-weighted average all-in buy price for
// symbol over remaining lots.
func (p *Portfolio) AvgCost(symbol string) float64 {
	return p.avgCost(symbol)
}

func (p *Portfolio) heldSymbols() []string {
	seen := make(map[string]struct{}, len(p.holdings))
	var syms []string
	for _, h := range p.holdings {
		if _, ok := seen[h.symbol]; !ok {
			seen[h.symbol] = struct{}{}
			syms = append(syms, h.symbol)
		}
	}
	return syms
}

// Summary returns a read-only performance snapshot.
func (p *Portfolio) Summary() domain.PortfolioSummary {
	s := domain.PortfolioSummary{
		Owner:          p.owner,
		NumHoldings:    len(p.holdings),
		TotalCost:      p.totalCost,
		Unrealized:     p.unrealized,
		UnrealizedPct:  p.unrealizedPct,
		Realized:       p.realized,
		CashStart:      p.cashStart,
		Cash:           p.cash,
		NAV:            p.nav,
		MaxDrawdownPct: p.maxDrawdown,
		Wins:           p.wins,
		Sells:          p.sells,
	}
	if p.navSeen {
		s.MaxNAV = p.maxNAV
		s.MinNAV = p.minNAV
	}
	if p.sells > 0 {
		s.WinRatePct = float64(p.wins) / float64(p.sells) * 100
	}
	s.ReturnRatePct = (p.nav - p.initialCapital) / p.initialCapital * 100
	if p.maxDrawdown != 0 {
		s.CalmarRatio = s.ReturnRatePct / -p.maxDrawdown
	}
	return s
}
