package domain

import "time"

// Fill is one executed order, as written to the trade log.
// Price is the slipped execution price (limit price adjusted by one
// tick increment against the taker), before commission and VAT.
type Fill struct {
	FillID      string    `json:"fill_id"`
	OrderNumber string    `json:"order_number"`
	Owner       string    `json:"owner"`
	Symbol      string    `json:"symbol"`
	Side        Side      `json:"side"`
	Volume      int64     `json:"volume"`
	Price       float64   `json:"price"`
	Time        time.Time `json:"time"`
}
