package strategy

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Registry errors
var (
	ErrUnknownStrategy     = errors.New("unknown strategy name")
	ErrDuplicateStrategy   = errors.New("strategy name already registered")
	ErrMissingDiscountPct  = errors.New("vwap_reversion requires discount_pct")
	ErrMissingStopLossPct  = errors.New("vwap_reversion requires stop_loss_pct")
	ErrMissingOrderVolume  = errors.New("vwap_reversion requires order_volume")
	ErrInvalidOrderVolume  = errors.New("order_volume must be a positive multiple of 100")
	ErrInvalidDiscountPct  = errors.New("discount_pct must be positive")
	ErrInvalidStopLossPct  = errors.New("stop_loss_pct must be positive")
)

// Params carries strategy tuning knobs from configuration.
type Params map[string]float64

// Constructor builds a fresh strategy instance for one symbol-day.
type Constructor func(params Params) (Strategy, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Constructor{}
)

// Register adds a named constructor to the registry. Duplicate names
// are a programming error.
func Register(name string, ctor Constructor) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateStrategy, name)
	}
	registry[name] = ctor
	return nil
}

// New constructs a strategy by registered name. Each call returns an
// independent instance.
func New(name string, params Params) (Strategy, error) {
	registryMu.RLock()
	ctor, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, name)
	}
	return ctor(params)
}

// Names lists registered strategy names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	must(Register("noop", func(Params) (Strategy, error) {
		return &NoopStrategy{}, nil
	}))
	must(Register("vwap_reversion", NewVWAPReversion))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
