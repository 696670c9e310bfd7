// Package feed supplies the tick stream a session replays. Day files
// come from CSV exports; live ticks arrive over a websocket.
package feed

import (
	"context"

	"intraday-sim-lab/internal/domain"
)

// Source streams ticks in time order. The channel closes when the
// source is exhausted or the context is cancelled; a non-nil error is
// then available from Err.
type Source interface {
	Stream(ctx context.Context) (<-chan *domain.Tick, error)
	Err() error
}

// SliceSource replays an in-memory slice of ticks, such as a loaded
// day file or a tick-store query result.
type SliceSource struct {
	ticks []*domain.Tick
}

// NewSliceSource wraps already-sorted ticks as a Source.
func NewSliceSource(ticks []*domain.Tick) *SliceSource {
	return &SliceSource{ticks: ticks}
}

// Stream emits the ticks in order.
func (s *SliceSource) Stream(ctx context.Context) (<-chan *domain.Tick, error) {
	out := make(chan *domain.Tick)
	go func() {
		defer close(out)
		for _, t := range s.ticks {
			select {
			case out <- t:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Err always returns nil; a slice cannot fail mid-stream.
func (s *SliceSource) Err() error { return nil }

var _ Source = (*SliceSource)(nil)

// Collect drains a source into a slice, for drivers that want the
// whole day up front.
func Collect(ctx context.Context, src Source) ([]*domain.Tick, error) {
	ch, err := src.Stream(ctx)
	if err != nil {
		return nil, err
	}
	var ticks []*domain.Tick
	for t := range ch {
		ticks = append(ticks, t)
	}
	if err := src.Err(); err != nil {
		return nil, err
	}
	return ticks, ctx.Err()
}
