package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"intraday-sim-lab/internal/config"
	"intraday-sim-lab/internal/domain"
	"intraday-sim-lab/internal/feed"
	"intraday-sim-lab/internal/observability"
	"intraday-sim-lab/internal/reporting"
	"intraday-sim-lab/internal/session"
	"intraday-sim-lab/internal/storage"
	chstore "intraday-sim-lab/internal/storage/clickhouse"
	fsstore "intraday-sim-lab/internal/storage/fs"
	"intraday-sim-lab/internal/storage/memory"
	"intraday-sim-lab/internal/storage/migrations"
	pgstore "intraday-sim-lab/internal/storage/postgres"
	"intraday-sim-lab/internal/universe"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to run configuration")
	day := flag.String("day", "", "Session date (YYYY-MM-DD), required")
	tickDir := flag.String("tick-dir", "", "Override tick data directory")
	strategyName := flag.String("strategy", "", "Override strategy name")
	fromArchive := flag.Bool("from-archive", false, "Read ticks from the ClickHouse archive instead of CSV files")
	jsonSummary := flag.Bool("json", false, "Print the end-of-day summary as JSON on stdout")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if *tickDir != "" {
		cfg.Data.TickDir = *tickDir
	}
	if *strategyName != "" {
		cfg.Strategy.Name = *strategyName
	}
	if *day == "" {
		logger.Fatal("--day is required (YYYY-MM-DD)")
	}
	sessionDate, err := time.Parse("2006-01-02", *day)
	if err != nil {
		logger.Fatal("parse --day", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown on SIGINT/SIGTERM, immediate on second signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
		<-sigCh
		os.Exit(1)
	}()

	if cfg.Data.UniverseFile != "" {
		if err := universe.Load(cfg.Data.UniverseFile); err != nil {
			logger.Fatal("load universe", zap.Error(err))
		}
		logger.Info("universe loaded",
			zap.String("file", cfg.Data.UniverseFile),
			zap.Int("symbols", universe.Size()))
	}

	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
		go serveMetrics(cfg.Metrics.Addr, logger)
	}

	snapshots, fills, summaries, cleanup, err := buildStores(ctx, cfg)
	if err != nil {
		logger.Fatal("connect stores", zap.Error(err))
	}
	defer cleanup()

	ticks, err := loadTicks(ctx, cfg, sessionDate, *fromArchive, logger)
	if err != nil {
		logger.Fatal("load ticks", zap.Error(err))
	}
	logger.Info("tick feed loaded", zap.Int("ticks", len(ticks)))

	sess, err := session.New(ctx, session.Config{
		Owner:          cfg.Team,
		StrategyName:   cfg.Strategy.Name,
		StrategyParams: cfg.Strategy.Params,
		Snapshots:      snapshots,
		Fills:          fills,
		Summaries:      summaries,
		Logger:         logger,
		Metrics:        metrics,
	})
	if err != nil {
		logger.Fatal("create session", zap.Error(err))
	}

	summary, err := sess.Run(ctx, sessionDate, ticks)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("session interrupted")
			return
		}
		logger.Fatal("run session", zap.Error(err))
	}

	logger.Info("session complete",
		zap.String("owner", summary.Owner),
		zap.Float64("nav", summary.NAV),
		zap.Float64("realized", summary.Realized),
		zap.Int("sells", summary.Sells),
		zap.Float64("win_rate_pct", summary.WinRatePct))

	if *jsonSummary {
		out, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			logger.Fatal("marshal summary", zap.Error(err))
		}
		fmt.Println(string(out))
	}

	gen := reporting.NewGenerator(fills, summaries)
	report, err := gen.Generate(ctx, cfg.Team)
	if err != nil {
		logger.Fatal("generate report", zap.Error(err))
	}
	if err := gen.WriteFiles(report, cfg.Results.Dir); err != nil {
		logger.Fatal("write report files", zap.Error(err))
	}
	logger.Info("report written",
		zap.String("dir", cfg.Results.Dir),
		zap.Int("fills", len(report.TradeLog)))
}

// buildStores creates the persistence stores selected by the config.
// The returned cleanup closes any database connections.
func buildStores(ctx context.Context, cfg *config.Config) (
	storage.SnapshotStore,
	storage.FillStore,
	storage.SummaryStore,
	func(),
	error,
) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return memory.NewSnapshotStore(), memory.NewFillStore(), memory.NewSummaryStore(), func() {}, nil

	case config.BackendFS:
		// Snapshots persist across days on disk; fills and summaries
		// live in memory and land in the report CSVs at end of run.
		return fsstore.NewSnapshotStore(cfg.Storage.FSDir), memory.NewFillStore(), memory.NewSummaryStore(), func() {}, nil

	case config.BackendPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		cleanup := func() { pool.Close() }
		return pgstore.NewSnapshotStore(pool), pgstore.NewFillStore(pool), pgstore.NewSummaryStore(pool), cleanup, nil

	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

// loadTicks reads the day's feed: the ClickHouse archive with
// --from-archive, the websocket endpoint when one is configured, CSV
// files otherwise.
func loadTicks(ctx context.Context, cfg *config.Config, day time.Time, fromArchive bool, logger *zap.Logger) ([]*domain.Tick, error) {
	if fromArchive {
		if cfg.Storage.ClickhouseDSN == "" {
			return nil, fmt.Errorf("--from-archive requires storage.clickhouse_dsn")
		}
		conn, err := chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer conn.Close()
		return chstore.NewTickStore(conn).GetByDay(ctx, day)
	}
	if cfg.Data.WSEndpoint != "" {
		src, err := feed.NewWSSource(ctx, cfg.Data.WSEndpoint, nil, logger)
		if err != nil {
			return nil, fmt.Errorf("connect tick feed: %w", err)
		}
		defer src.Close()
		return feed.Collect(ctx, src)
	}
	return feed.LoadDayDir(cfg.Data.TickDir)
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	logger.Info("metrics server listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server", zap.Error(err))
	}
}
