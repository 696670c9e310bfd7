package strategy

import (
	"context"

	"intraday-sim-lab/internal/domain"
)

// NoopStrategy observes ticks and never trades. Used as a baseline and
// in driver tests.
type NoopStrategy struct{}

func (s *NoopStrategy) Name() string { return "noop" }

func (s *NoopStrategy) OnTick(context.Context, domain.Tick, Trader) error {
	return nil
}

var _ Strategy = (*NoopStrategy)(nil)
