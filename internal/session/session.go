// Package session drives one team's trading day: it feeds ticks to
// per-symbol strategies, resolves pending orders through the matching
// engine, marks the portfolio to market, and persists fills, the
// snapshot and the daily summary when the day ends.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"intraday-sim-lab/internal/domain"
	"intraday-sim-lab/internal/engine"
	"intraday-sim-lab/internal/idhash"
	"intraday-sim-lab/internal/observability"
	"intraday-sim-lab/internal/portfolio"
	"intraday-sim-lab/internal/storage"
	"intraday-sim-lab/internal/strategy"
	"intraday-sim-lab/internal/universe"
)

// Rejection is one de-duplicated entry in the session's rejection log.
type Rejection struct {
	Symbol string
	Reason string
	Count  int
}

// Config assembles a session's collaborators.
type Config struct {
	Owner          string
	StrategyName   string
	StrategyParams strategy.Params

	Snapshots storage.SnapshotStore
	Fills     storage.FillStore
	Summaries storage.SummaryStore

	Logger  *zap.Logger
	Metrics *observability.Metrics

	// Clock overrides time.Now for deterministic persistence stamps.
	Clock func() time.Time
}

// Session is one team's simulation state for a trading day.
type Session struct {
	owner     string
	portfolio *portfolio.Portfolio
	engine    *engine.Engine

	newStrategy func() (strategy.Strategy, error)
	handlers    map[string]*Handler

	fills    []domain.Fill
	rejOrder []string
	rejByKey map[string]*Rejection

	snapshots storage.SnapshotStore
	fillStore storage.FillStore
	summaries storage.SummaryStore

	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// New builds a session for the owner, restoring the portfolio from the
// snapshot store when one exists and starting fresh otherwise.
func New(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Owner == "" {
		return nil, errors.New("session owner required")
	}
	if cfg.Snapshots == nil || cfg.Fills == nil || cfg.Summaries == nil {
		return nil, errors.New("session requires snapshot, fill and summary stores")
	}
	if cfg.StrategyName == "" {
		cfg.StrategyName = "noop"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	// Construct one instance up front so a bad strategy name or params
	// fail at session build, not mid-day.
	if _, err := strategy.New(cfg.StrategyName, cfg.StrategyParams); err != nil {
		return nil, fmt.Errorf("build strategy %s: %w", cfg.StrategyName, err)
	}

	var port *portfolio.Portfolio
	snap, err := cfg.Snapshots.Load(ctx, cfg.Owner)
	switch {
	case err == nil:
		port = portfolio.FromSnapshot(snap)
		logger.Info("portfolio restored from snapshot",
			zap.String("owner", cfg.Owner),
			zap.Float64("cash", port.Cash()),
			zap.Int("holdings", port.NumHoldings()),
		)
	case errors.Is(err, storage.ErrNotFound):
		port = portfolio.New(cfg.Owner)
		logger.Info("fresh portfolio created",
			zap.String("owner", cfg.Owner),
			zap.Float64("cash", port.Cash()),
		)
	default:
		return nil, fmt.Errorf("load snapshot for %s: %w", cfg.Owner, err)
	}
	port.StartSession()

	s := &Session{
		owner:     cfg.Owner,
		portfolio: port,
		newStrategy: func() (strategy.Strategy, error) {
			return strategy.New(cfg.StrategyName, cfg.StrategyParams)
		},
		handlers:  make(map[string]*Handler),
		rejByKey:  make(map[string]*Rejection),
		snapshots: cfg.Snapshots,
		fillStore: cfg.Fills,
		summaries: cfg.Summaries,
		logger:    logger,
		metrics:   cfg.Metrics,
		now:       now,
	}
	s.engine = engine.New(s, logger)
	return s, nil
}

// Portfolio exposes the session's portfolio.
func (s *Session) Portfolio() *portfolio.Portfolio { return s.portfolio }

// Fills returns the fills recorded so far this session.
func (s *Session) Fills() []domain.Fill {
	return append([]domain.Fill(nil), s.fills...)
}

// Rejections returns the de-duplicated rejection log in first-seen
// order.
func (s *Session) Rejections() []Rejection {
	out := make([]Rejection, 0, len(s.rejOrder))
	for _, key := range s.rejOrder {
		out = append(out, *s.rejByKey[key])
	}
	return out
}

// RecordFill receives one executed order from the engine.
func (s *Session) RecordFill(f domain.Fill) {
	s.fills = append(s.fills, f)
	s.metrics.RecordFill(string(f.Side), f.Volume)
}

// Run replays a day of ticks in order and persists the results. Ticks
// must already be sorted by time; the loop never reorders them. A
// strategy or accounting error aborts the day; order rejections do not.
func (s *Session) Run(ctx context.Context, sessionDate time.Time, ticks []*domain.Tick) (domain.PortfolioSummary, error) {
	start := s.now()
	engine.ResetOrderCounter()

	for _, tick := range ticks {
		if err := ctx.Err(); err != nil {
			return domain.PortfolioSummary{}, err
		}
		if tick.Flag == domain.TickFlagOpen || !universe.Contains(tick.Symbol) {
			if s.metrics != nil {
				s.metrics.TicksSkipped.Inc()
			}
			continue
		}

		handler, err := s.handler(tick.Symbol)
		if err != nil {
			return domain.PortfolioSummary{}, err
		}
		handler.observe(tick)

		// Strategies receive a value copy; mutating it cannot corrupt
		// the feed.
		if err := handler.strat.OnTick(ctx, *tick, handler); err != nil {
			return domain.PortfolioSummary{}, fmt.Errorf("strategy %s on %s: %w", handler.strat.Name(), tick.Symbol, err)
		}

		if err := s.engine.OnTick(tick); err != nil {
			return domain.PortfolioSummary{}, fmt.Errorf("resolve orders: %w", err)
		}

		s.portfolio.RefreshMarketPrices(map[string]float64{tick.Symbol: tick.Price})
		s.metrics.RecordTick()
		s.metrics.UpdatePortfolio(s.portfolio.Cash(), s.portfolio.NAV())
	}

	if err := s.finish(ctx, sessionDate); err != nil {
		return domain.PortfolioSummary{}, err
	}

	if s.metrics != nil {
		s.metrics.SessionDuration.Observe(s.now().Sub(start).Seconds())
		s.metrics.SessionsRun.Inc()
	}
	return s.portfolio.Summary(), nil
}

// finish flushes the day's artifacts: fills, the portfolio snapshot and
// the daily summary row.
func (s *Session) finish(ctx context.Context, sessionDate time.Time) error {
	savedAt := s.now()

	if len(s.fills) > 0 {
		batch := make([]*domain.Fill, len(s.fills))
		for i := range s.fills {
			batch[i] = &s.fills[i]
		}
		if err := s.fillStore.InsertBulk(ctx, batch); err != nil {
			return fmt.Errorf("flush fills: %w", err)
		}
	}

	snap := s.portfolio.Snapshot()
	snap.SavedAt = savedAt
	if err := s.snapshots.Save(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	dateStr := sessionDate.Format("2006-01-02")
	summary := &domain.DailySummary{
		SummaryID:   idhash.ComputeSummaryID(s.owner, dateStr),
		SessionDate: sessionDate,
		SavedAt:     savedAt,
		Summary:     s.portfolio.Summary(),
	}
	if err := s.summaries.Insert(ctx, summary); err != nil {
		return fmt.Errorf("save daily summary: %w", err)
	}

	for _, rej := range s.Rejections() {
		s.logger.Warn("order rejections",
			zap.String("symbol", rej.Symbol),
			zap.String("reason", rej.Reason),
			zap.Int("count", rej.Count),
		)
	}

	s.logger.Info("session day complete",
		zap.String("owner", s.owner),
		zap.String("date", dateStr),
		zap.Int("fills", len(s.fills)),
		zap.Int("rejection_kinds", len(s.rejOrder)),
		zap.Float64("cash", s.portfolio.Cash()),
		zap.Float64("nav", s.portfolio.NAV()),
	)
	return nil
}

// handler returns the symbol's handler, building it and a fresh
// strategy instance on first sight.
func (s *Session) handler(symbol string) (*Handler, error) {
	if h, ok := s.handlers[symbol]; ok {
		return h, nil
	}
	strat, err := s.newStrategy()
	if err != nil {
		return nil, fmt.Errorf("build strategy for %s: %w", symbol, err)
	}
	h := newHandler(symbol, s, strat)
	s.handlers[symbol] = h
	return h, nil
}

// rejected folds a validation failure into the rejection log. Business
// rejections surface to the strategy as an unaccepted result; anything
// else propagates as an error.
func (s *Session) rejected(symbol string, err error) (strategy.OrderResult, error) {
	if !engine.IsRejection(err) {
		return strategy.OrderResult{}, err
	}

	key := symbol + "|" + err.Error()
	if rec, ok := s.rejByKey[key]; ok {
		rec.Count++
	} else {
		s.rejByKey[key] = &Rejection{Symbol: symbol, Reason: err.Error(), Count: 1}
		s.rejOrder = append(s.rejOrder, key)
	}
	s.metrics.RecordRejection(reasonClass(err.Error()))

	return strategy.OrderResult{Reason: err.Error()}, nil
}

func (s *Session) orderSubmitted() {
	s.metrics.RecordSubmission()
}

// reasonClass maps a rejection message onto a low-cardinality metric
// label.
func reasonClass(reason string) string {
	switch {
	case strings.Contains(reason, "multiple of 100"):
		return "lot_size"
	case strings.Contains(reason, "invalid side"):
		return "side"
	case strings.Contains(reason, "not in SET50"):
		return "symbol"
	case strings.Contains(reason, "insufficient cash"):
		return "cash"
	case strings.Contains(reason, "not in the portfolio"):
		return "holdings"
	case strings.Contains(reason, "cumulative"):
		return "liquidity"
	default:
		return "other"
	}
}
