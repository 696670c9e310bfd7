package reporting

import (
	"fmt"
	"strings"

	"intraday-sim-lab/internal/domain"
)

const csvTimeLayout = "2006-01-02 15:04:05"

// RenderTradeLogCSV renders the full trade log as CSV.
func RenderTradeLogCSV(fills []*domain.Fill) string {
	var sb strings.Builder

	sb.WriteString("order_number,owner,volume,price,side,symbol,timestamp\n")

	for _, f := range fills {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%.2f,%s,%s,%s\n",
			f.OrderNumber,
			f.Owner,
			f.Volume,
			f.Price,
			f.Side,
			f.Symbol,
			f.Time.Format(csvTimeLayout),
		))
	}

	return sb.String()
}

// RenderDailyResultsCSV renders per-day summaries as CSV.
func RenderDailyResultsCSV(rows []*domain.DailySummary) string {
	var sb strings.Builder

	sb.WriteString("session_date,num_holdings,total_cost,unrealized,unrealized_pct,realized,")
	sb.WriteString("cash,nav,max_nav,min_nav,max_drawdown_pct,calmar_ratio,")
	sb.WriteString("wins,sells,win_rate_pct,return_rate_pct\n")

	for _, r := range rows {
		s := r.Summary
		sb.WriteString(fmt.Sprintf("%s,%d,%.2f,%.2f,%.4f,%.2f,%.2f,%.2f,%.2f,%.2f,%.4f,%.4f,%d,%d,%.4f,%.4f\n",
			r.SessionDate.Format("2006-01-02"),
			s.NumHoldings,
			s.TotalCost,
			s.Unrealized,
			s.UnrealizedPct,
			s.Realized,
			s.Cash,
			s.NAV,
			s.MaxNAV,
			s.MinNAV,
			s.MaxDrawdownPct,
			s.CalmarRatio,
			s.Wins,
			s.Sells,
			s.WinRatePct,
			s.ReturnRatePct,
		))
	}

	return sb.String()
}

// RenderSymbolActivityCSV renders the per-symbol activity breakdown as
// CSV. The TOTAL row leaves average price and amount columns blank.
func RenderSymbolActivityCSV(rows []SymbolActivityRow) string {
	var sb strings.Builder

	sb.WriteString("symbol,buy_count,buy_volume,buy_avg_price,buy_amount,buy_comm,buy_vat,paid_amount,")
	sb.WriteString("sell_count,sell_volume,sell_avg_price,sell_amount,sell_comm,sell_vat,received_amount\n")

	for _, r := range rows {
		if r.Symbol == TotalRowSymbol {
			sb.WriteString(fmt.Sprintf("%s,%d,%d,,,%.2f,%.2f,%.2f,%d,%d,,,%.2f,%.2f,%.2f\n",
				r.Symbol,
				r.BuyCount, r.BuyVolume, r.BuyCommission, r.BuyVAT, r.PaidAmount,
				r.SellCount, r.SellVolume, r.SellCommission, r.SellVAT, r.ReceivedAmount,
			))
			continue
		}
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%.2f,%.2f,%.2f,%.2f,%.2f,%d,%d,%.2f,%.2f,%.2f,%.2f,%.2f\n",
			r.Symbol,
			r.BuyCount, r.BuyVolume, r.BuyAvgPrice, r.BuyAmount, r.BuyCommission, r.BuyVAT, r.PaidAmount,
			r.SellCount, r.SellVolume, r.SellAvgPrice, r.SellAmount, r.SellCommission, r.SellVAT, r.ReceivedAmount,
		))
	}

	return sb.String()
}
