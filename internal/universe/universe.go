// Package universe holds the reference list of tradable symbols.
// The list is process-wide state loaded once at startup; orders for
// symbols outside it are rejected.
package universe

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"sync"
)

var (
	mu      sync.RWMutex
	symbols map[string]struct{}
)

// Load reads the reference symbol list from a CSV file with a Symbol
// column. Repeated calls are no-ops once a list is loaded; use Reset
// first to force a reload.
func Load(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if symbols != nil {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open reference list: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read reference list header: %w", err)
	}

	symbolCol := -1
	for i, h := range header {
		h = strings.TrimPrefix(strings.TrimSpace(h), "\uFEFF")
		if strings.EqualFold(h, "symbol") {
			symbolCol = i
			break
		}
	}
	if symbolCol < 0 {
		return fmt.Errorf("reference list %s: no Symbol column", path)
	}

	set := make(map[string]struct{})
	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		sym := strings.ToUpper(strings.TrimSpace(record[symbolCol]))
		if sym != "" {
			set[sym] = struct{}{}
		}
	}

	symbols = set
	return nil
}

// SetSymbols installs an explicit symbol list, replacing any loaded
// one. Intended for tests and embedded callers.
func SetSymbols(list []string) {
	mu.Lock()
	defer mu.Unlock()

	set := make(map[string]struct{}, len(list))
	for _, s := range list {
		set[strings.ToUpper(strings.TrimSpace(s))] = struct{}{}
	}
	symbols = set
}

// Reset clears the loaded list so the next Load re-reads it.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	symbols = nil
}

// Loaded reports whether a reference list is in place.
func Loaded() bool {
	mu.RLock()
	defer mu.RUnlock()
	return symbols != nil
}

// Contains reports whether symbol is in the reference list. The check
// is case-insensitive. Returns false if no list has been loaded.
func Contains(symbol string) bool {
	mu.RLock()
	defer mu.RUnlock()

	if symbols == nil {
		return false
	}
	_, ok := symbols[strings.ToUpper(strings.TrimSpace(symbol))]
	return ok
}

// Size returns the number of symbols in the reference list.
func Size() int {
	mu.RLock()
	defer mu.RUnlock()
	return len(symbols)
}
