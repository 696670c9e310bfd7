package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"intraday-sim-lab/internal/domain"
	"intraday-sim-lab/internal/feed"
	chstore "intraday-sim-lab/internal/storage/clickhouse"
	"intraday-sim-lab/internal/storage/migrations"
)

const insertBatchSize = 10000

func main() {
	tickDir := flag.String("tick-dir", "", "Directory of daily tick CSV files")
	tickFile := flag.String("tick-file", "", "Single tick CSV file (alternative to --tick-dir)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	if *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required")
	}
	if (*tickDir == "") == (*tickFile == "") {
		logger.Fatal("exactly one of --tick-dir or --tick-file is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var ticks []*domain.Tick
	if *tickFile != "" {
		ticks, err = feed.LoadDayFile(*tickFile)
	} else {
		ticks, err = feed.LoadDayDir(*tickDir)
	}
	if err != nil {
		logger.Fatal("load ticks", zap.Error(err))
	}
	if len(ticks) == 0 {
		logger.Warn("no ticks to ingest")
		return
	}
	logger.Info("ticks loaded", zap.Int("count", len(ticks)))

	conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}
	defer conn.Close()

	store := chstore.NewTickStore(conn)
	inserted := 0
	for start := 0; start < len(ticks); start += insertBatchSize {
		if ctx.Err() != nil {
			logger.Warn("ingest interrupted", zap.Int("inserted", inserted))
			return
		}
		end := start + insertBatchSize
		if end > len(ticks) {
			end = len(ticks)
		}
		if err := store.InsertBulk(ctx, ticks[start:end]); err != nil {
			logger.Fatal("insert batch",
				zap.Int("offset", start),
				zap.Error(err))
		}
		inserted += end - start
	}

	logger.Info("ingest complete", zap.Int("inserted", inserted))
}
