package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"intraday-sim-lab/internal/domain"
)

// tickTimeLayout is the timestamp format of exported day files.
const tickTimeLayout = "2006-01-02 15:04:05"

// LoadDayFile parses one CSV day file into ticks sorted by time.
// Expected columns: ShareCode, TradeDateTime, LastPrice, Volume, Flag.
// Opening-auction prints are dropped; they never reach the engine.
func LoadDayFile(path string) ([]*domain.Tick, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open day file: %w", err)
	}
	defer f.Close()

	ticks, err := parseDayCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return ticks, nil
}

// LoadDayDir loads every .csv file in a directory and merges the ticks
// into one time-sorted stream.
func LoadDayDir(dir string) ([]*domain.Tick, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read day dir: %w", err)
	}

	var all []*domain.Tick
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		ticks, err := LoadDayFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		all = append(all, ticks...)
	}

	sortByTime(all)
	return all, nil
}

func parseDayCSV(r io.Reader) ([]*domain.Tick, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := map[string]int{}
	for i, name := range header {
		col[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "\uFEFF"))] = i
	}
	for _, required := range []string{"sharecode", "tradedatetime", "lastprice", "volume", "flag"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var ticks []*domain.Tick
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		flag := domain.TickFlag(strings.TrimSpace(record[col["flag"]]))
		if flag == domain.TickFlagOpen {
			continue
		}

		ts, err := parseTickTime(strings.TrimSpace(record[col["tradedatetime"]]))
		if err != nil {
			return nil, fmt.Errorf("line %d: parse time: %w", line, err)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(record[col["lastprice"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse price: %w", line, err)
		}
		volume, err := strconv.ParseInt(strings.TrimSpace(record[col["volume"]]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse volume: %w", line, err)
		}

		ticks = append(ticks, &domain.Tick{
			Symbol: strings.ToUpper(strings.TrimSpace(record[col["sharecode"]])),
			Time:   ts,
			Price:  price,
			Volume: volume,
			Flag:   flag,
		})
	}

	sortByTime(ticks)
	return ticks, nil
}

func parseTickTime(s string) (time.Time, error) {
	for _, layout := range []string{tickTimeLayout, "2006-01-02 15:04:05.000", time.RFC3339} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func sortByTime(ticks []*domain.Tick) {
	sort.SliceStable(ticks, func(i, j int) bool {
		return ticks[i].Time.Before(ticks[j].Time)
	})
}
