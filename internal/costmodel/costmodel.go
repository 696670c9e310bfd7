// Package costmodel prices simulated executions: one tick of adverse
// slippage against the taker, plus commission and VAT on the slipped
// amount. All functions are pure and operate on the static exchange
// tier tables.
package costmodel

import "intraday-sim-lab/internal/domain"

// Transaction cost rates. Commission is charged on the slipped trade
// amount; VAT is charged on the commission.
const (
	CommissionRate = 0.00157
	VATRate        = 0.07
)

// Price bands and their minimum price increments. Bands are ascending
// and half-open: a price in [priceBands[i-1], priceBands[i]) moves in
// increments[i]. Prices at or above the last band boundary use the
// final increment.
var (
	priceBands = []float64{2, 5, 10, 25, 100, 200, 400}
	increments = []float64{0.01, 0.02, 0.05, 0.10, 0.25, 0.50, 1.00, 2.00}
)

// TickIncrement returns the minimum price increment for the band
// containing price. A band boundary belongs to the upper band.
func TickIncrement(price float64) float64 {
	for i, bound := range priceBands {
		if price < bound {
			return increments[i]
		}
	}
	return increments[len(increments)-1]
}

// UnitCost returns the all-in per-unit execution price for a trade of
// volume shares at the quoted price. A buy pays one increment above
// the quote plus commission and VAT; a sell receives one increment
// below the quote minus commission and VAT.
func UnitCost(volume int64, price float64, side domain.Side) float64 {
	inc := TickIncrement(price)
	switch side {
	case domain.SideBuy:
		slipped := price + inc
		amount := slipped * float64(volume)
		comm := amount * CommissionRate
		vat := comm * VATRate
		return (amount + comm + vat) / float64(volume)
	case domain.SideSell:
		slipped := price - inc
		amount := slipped * float64(volume)
		comm := amount * CommissionRate
		vat := comm * VATRate
		return (amount - comm - vat) / float64(volume)
	}
	return 0
}

// TotalBuyCost returns the worst-case cash required to buy volume
// shares at the quoted price: slipped amount plus commission plus VAT.
func TotalBuyCost(volume int64, price float64) float64 {
	return UnitCost(volume, price, domain.SideBuy) * float64(volume)
}

// CanAfford reports whether cash covers the full estimated cost of a
// buy, including slippage, commission and VAT.
func CanAfford(volume int64, price float64, cash float64) bool {
	return cash >= TotalBuyCost(volume, price)
}
