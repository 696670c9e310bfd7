package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the run report as Markdown.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Simulation Report: %s\n\n", r.Owner))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Sessions: %d | Fills: %d\n\n", r.DayCount, len(r.TradeLog)))

	// Daily results
	sb.WriteString("## Daily Results\n\n")
	if len(r.DailyResults) > 0 {
		sb.WriteString("| Date | NAV | Cash | Realized | Unrealized | MaxDD% | Calmar | Wins | Sells | WinRate% | Return% |\n")
		sb.WriteString("|------|-----|------|----------|------------|--------|--------|------|-------|----------|--------|\n")
		for _, d := range r.DailyResults {
			s := d.Summary
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %.2f | %.2f | %.4f | %.4f | %d | %d | %.2f | %.4f |\n",
				d.SessionDate.Format("2006-01-02"),
				s.NAV, s.Cash, s.Realized, s.Unrealized,
				s.MaxDrawdownPct, s.CalmarRatio,
				s.Wins, s.Sells, s.WinRatePct, s.ReturnRatePct))
		}
	} else {
		sb.WriteString("No sessions recorded.\n")
	}
	sb.WriteString("\n")

	// Symbol activity
	sb.WriteString("## Symbol Activity\n\n")
	if len(r.SymbolActivity) > 0 {
		sb.WriteString("| Symbol | Buys | Buy Vol | Buy Avg | Paid | Sells | Sell Vol | Sell Avg | Received |\n")
		sb.WriteString("|--------|------|---------|---------|------|-------|----------|----------|----------|\n")
		for _, a := range r.SymbolActivity {
			if a.Symbol == TotalRowSymbol {
				sb.WriteString(fmt.Sprintf("| %s | %d | %d | | %.2f | %d | %d | | %.2f |\n",
					a.Symbol, a.BuyCount, a.BuyVolume, a.PaidAmount,
					a.SellCount, a.SellVolume, a.ReceivedAmount))
				continue
			}
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.2f | %.2f | %d | %d | %.2f | %.2f |\n",
				a.Symbol, a.BuyCount, a.BuyVolume, a.BuyAvgPrice, a.PaidAmount,
				a.SellCount, a.SellVolume, a.SellAvgPrice, a.ReceivedAmount))
		}
	} else {
		sb.WriteString("No executed orders.\n")
	}
	sb.WriteString("\n")

	// Trade log tail
	sb.WriteString("## Trade Log\n\n")
	if len(r.TradeLog) > 0 {
		sb.WriteString("| Order | Symbol | Side | Volume | Price | Time |\n")
		sb.WriteString("|-------|--------|------|--------|-------|------|\n")
		for _, f := range r.TradeLog {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %.2f | %s |\n",
				f.OrderNumber, f.Symbol, f.Side, f.Volume, f.Price,
				f.Time.Format(csvTimeLayout)))
		}
	} else {
		sb.WriteString("No fills recorded.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
