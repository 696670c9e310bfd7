package reporting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"intraday-sim-lab/internal/costmodel"
	"intraday-sim-lab/internal/domain"
	"intraday-sim-lab/internal/storage"
)

// Generator produces run reports from stored fills and summaries.
type Generator struct {
	fillStore    storage.FillStore
	summaryStore storage.SummaryStore
	now          func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(fillStore storage.FillStore, summaryStore storage.SummaryStore) *Generator {
	return &Generator{
		fillStore:    fillStore,
		summaryStore: summaryStore,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete report for one owner.
func (g *Generator) Generate(ctx context.Context, owner string) (*Report, error) {
	fills, err := g.fillStore.GetByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load fills: %w", err)
	}

	summaries, err := g.summaryStore.GetByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}

	return &Report{
		GeneratedAt:    g.now(),
		Owner:          owner,
		DayCount:       len(summaries),
		TradeLog:       fills,
		DailyResults:   summaries,
		SymbolActivity: buildSymbolActivity(fills),
	}, nil
}

// WriteFiles writes the report deliverables under <baseDir>/<owner>/:
// the trade log, the daily results, the per-symbol activity summary
// and a Markdown report.
func (g *Generator) WriteFiles(r *Report, baseDir string) error {
	dir := filepath.Join(baseDir, r.Owner)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	files := map[string]string{
		r.Owner + "_transaction_log.csv":                RenderTradeLogCSV(r.TradeLog),
		r.Owner + "_daily_results.csv":                  RenderDailyResultsCSV(r.DailyResults),
		r.Owner + "_portfolios_transaction_summary.csv": RenderSymbolActivityCSV(r.SymbolActivity),
		r.Owner + "_report.md":                          RenderMarkdown(r),
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// buildSymbolActivity aggregates fills per symbol and appends a TOTAL
// row. Amounts use the mean fill price so a symbol's buy amount is
// mean(price) * total volume, matching the downstream accounting
// sheet.
func buildSymbolActivity(fills []*domain.Fill) []SymbolActivityRow {
	if len(fills) == 0 {
		return nil
	}

	type bucket struct {
		buyCount     int
		buyVolume    int64
		buyPriceSum  float64
		sellCount    int
		sellVolume   int64
		sellPriceSum float64
	}
	buckets := make(map[string]*bucket)
	for _, f := range fills {
		b := buckets[f.Symbol]
		if b == nil {
			b = &bucket{}
			buckets[f.Symbol] = b
		}
		switch f.Side {
		case domain.SideBuy:
			b.buyCount++
			b.buyVolume += f.Volume
			b.buyPriceSum += f.Price
		case domain.SideSell:
			b.sellCount++
			b.sellVolume += f.Volume
			b.sellPriceSum += f.Price
		}
	}

	symbols := make([]string, 0, len(buckets))
	for sym := range buckets {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	var total SymbolActivityRow
	total.Symbol = TotalRowSymbol

	rows := make([]SymbolActivityRow, 0, len(buckets)+1)
	for _, sym := range symbols {
		b := buckets[sym]
		row := SymbolActivityRow{
			Symbol:     sym,
			BuyCount:   b.buyCount,
			BuyVolume:  b.buyVolume,
			SellCount:  b.sellCount,
			SellVolume: b.sellVolume,
		}
		if b.buyCount > 0 {
			row.BuyAvgPrice = b.buyPriceSum / float64(b.buyCount)
			row.BuyAmount = row.BuyAvgPrice * float64(b.buyVolume)
			row.BuyCommission = row.BuyAmount * costmodel.CommissionRate
			row.BuyVAT = row.BuyCommission * costmodel.VATRate
			row.PaidAmount = row.BuyAmount + row.BuyCommission + row.BuyVAT
		}
		if b.sellCount > 0 {
			row.SellAvgPrice = b.sellPriceSum / float64(b.sellCount)
			row.SellAmount = row.SellAvgPrice * float64(b.sellVolume)
			row.SellCommission = row.SellAmount * costmodel.CommissionRate
			row.SellVAT = row.SellCommission * costmodel.VATRate
			row.ReceivedAmount = row.SellAmount - row.SellCommission - row.SellVAT
		}
		rows = append(rows, row)

		total.BuyCount += row.BuyCount
		total.BuyVolume += row.BuyVolume
		total.BuyCommission += row.BuyCommission
		total.BuyVAT += row.BuyVAT
		total.PaidAmount += row.PaidAmount
		total.SellCount += row.SellCount
		total.SellVolume += row.SellVolume
		total.SellCommission += row.SellCommission
		total.SellVAT += row.SellVAT
		total.ReceivedAmount += row.ReceivedAmount
	}

	return append(rows, total)
}
