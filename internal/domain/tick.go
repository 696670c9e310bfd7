package domain

import "time"

// Side represents an order side. Values are case-sensitive on the wire.
type Side string

// Side constants.
const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

// Valid reports whether the side is exactly Buy or Sell.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// TickFlag classifies a tick in the daily feed.
type TickFlag string

// Tick flag constants. Open marks opening-auction prints, which the
// data loader excludes before ticks reach the engine.
const (
	TickFlagBuy  TickFlag = "Buy"
	TickFlagSell TickFlag = "Sell"
	TickFlagOpen TickFlag = "Open"
)

// Tick is one reported trade from the daily feed.
type Tick struct {
	Symbol string
	Time   time.Time
	Price  float64
	Volume int64
	Flag   TickFlag
}
