package domain

import "time"

// HoldingSnapshot is the durable form of one open lot.
type HoldingSnapshot struct {
	Symbol      string    `json:"symbol"`
	StartVolume int64     `json:"start_volume"`
	Volume      int64     `json:"volume"`
	BuyPrice    float64   `json:"buy_price"`
	MarkPrice   float64   `json:"mark_price"`
	Realized    float64   `json:"realized"`
	BuyTime     time.Time `json:"buy_time"`
}

// PortfolioSnapshot is the durable portfolio state carried between
// trading days, keyed by owner. Mark-to-market fields and NAV
// watermarks are intentionally absent: they are rebuilt from the next
// session's ticks, only the drawdown carry-over survives the day.
type PortfolioSnapshot struct {
	Owner          string            `json:"owner"`
	Cash           float64           `json:"cash"`
	CashStart      float64           `json:"cash_start"`
	Realized       float64           `json:"realized"`
	Holdings       []HoldingSnapshot `json:"holdings"`
	Wins           int               `json:"wins"`
	Sells          int               `json:"sells"`
	PrevDayMaxDD   *float64          `json:"prev_day_max_drawdown"`
	SavedAt        time.Time         `json:"saved_at"`
}
