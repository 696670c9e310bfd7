package reporting

import (
	"time"

	"intraday-sim-lab/internal/domain"
)

// Report collects everything the end-of-run deliverables need: the
// full trade log, the per-day results and the per-symbol activity
// breakdown.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Owner       string
	DayCount    int

	// Every fill across the run, ordered by time.
	TradeLog []*domain.Fill

	// One row per session date, ordered by date.
	DailyResults []*domain.DailySummary

	// Per-symbol buy/sell activity, sorted by symbol, with a trailing
	// TOTAL row.
	SymbolActivity []SymbolActivityRow
}

// SymbolActivityRow aggregates one symbol's executed orders. Amounts
// use the mean fill price, commission is charged on the amount and
// VAT on the commission.
type SymbolActivityRow struct {
	Symbol string

	BuyCount      int
	BuyVolume     int64
	BuyAvgPrice   float64
	BuyAmount     float64
	BuyCommission float64
	BuyVAT        float64
	PaidAmount    float64

	SellCount      int
	SellVolume     int64
	SellAvgPrice   float64
	SellAmount     float64
	SellCommission float64
	SellVAT        float64
	ReceivedAmount float64
}

// TotalRowSymbol marks the aggregate row appended after the
// per-symbol rows. The average price and amount columns are left
// blank on that row.
const TotalRowSymbol = "TOTAL"
