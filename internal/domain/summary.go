package domain

import "time"

// PortfolioSummary is a read-only snapshot of portfolio performance.
// All percentage fields are expressed in percent (e.g. -3.5 for a
// 3.5% drawdown).
type PortfolioSummary struct {
	Owner          string
	NumHoldings    int
	TotalCost      float64
	Unrealized     float64
	UnrealizedPct  float64
	Realized       float64
	CashStart      float64
	Cash           float64
	NAV            float64
	MaxNAV         float64
	MinNAV         float64
	MaxDrawdownPct float64
	CalmarRatio    float64
	Wins           int
	Sells          int
	WinRatePct     float64
	ReturnRatePct  float64
}

// DailySummary is one row of the per-day results log: the portfolio
// summary at end of session plus session identification.
type DailySummary struct {
	SummaryID   string
	SessionDate time.Time
	SavedAt     time.Time
	Summary     PortfolioSummary
}
