package portfolio

import "time"

// Holding is one purchased lot. All mutation goes through unexported
// methods so a lot can only change via the Portfolio that owns it;
// external packages see lots as read-only HoldingView copies.
type Holding struct {
	symbol        string
	startVolume   int64
	volume        int64
	buyPrice      float64 // all-in per-unit execution cost at fill
	markPrice     float64
	costBasis     float64 // remaining volume × symbol average cost
	marketValue   float64
	unrealized    float64
	unrealizedPct float64
	realized      float64
	buyTime       time.Time
}

// remark refreshes the lot's mark-to-market fields from the current
// market price and the symbol-wide average cost.
func (h *Holding) remark(markPrice, avgCost float64) {
	h.markPrice = markPrice
	h.costBasis = float64(h.volume) * avgCost
	h.marketValue = float64(h.volume) * markPrice
	h.unrealized = h.marketValue - h.costBasis
	if h.costBasis != 0 {
		h.unrealizedPct = h.unrealized / h.costBasis * 100
	} else {
		h.unrealizedPct = 0
	}
}

// reduce decrements remaining volume. Callers guarantee
// 0 < volume <= h.volume; the owning Portfolio removes the lot once
// volume reaches zero.
func (h *Holding) reduce(volume int64) {
	h.volume -= volume
}

// HoldingView is a read-only copy of a lot handed to strategies and
// reporting code.
type HoldingView struct {
	Symbol        string
	StartVolume   int64
	Volume        int64
	BuyPrice      float64
	MarkPrice     float64
	CostBasis     float64
	MarketValue   float64
	Unrealized    float64
	UnrealizedPct float64
	Realized      float64
	BuyTime       time.Time
}

func (h *Holding) view() HoldingView {
	return HoldingView{
		Symbol:        h.symbol,
		StartVolume:   h.startVolume,
		Volume:        h.volume,
		BuyPrice:      h.buyPrice,
		MarkPrice:     h.markPrice,
		CostBasis:     h.costBasis,
		MarketValue:   h.marketValue,
		Unrealized:    h.unrealized,
		UnrealizedPct: h.unrealizedPct,
		Realized:      h.realized,
		BuyTime:       h.buyTime,
	}
}
