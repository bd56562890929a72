package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"pulseline/internal/config"
	"pulseline/internal/db"
	"pulseline/internal/logging"
)

// dbinit provisions the schema: base tables, hypertables where the
// TimescaleDB extension is available, and the rollup views. Safe to
// run repeatedly.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	gdb, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}

	ctx := context.Background()
	stores := []db.TableStore{
		db.NewPointStore(gdb, logger),
		db.NewSummaryStore(gdb, logger),
	}
	for _, store := range stores {
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Fatal("schema provisioning failed",
				zap.String("table", store.Stream().Name), zap.Error(err))
		}
		count, err := store.Count(ctx)
		if err != nil {
			logger.Warn("row count unavailable",
				zap.String("table", store.Stream().Name), zap.Error(err))
			continue
		}
		logger.Info("table ready",
			zap.String("table", store.Stream().Name), zap.Int64("rows", count))
	}

	if err := db.ProvisionRollups(gdb, logger); err != nil {
		logger.Fatal("rollup provisioning failed", zap.Error(err))
	}
	for view, count := range db.RollupCounts(ctx, gdb) {
		logger.Info("rollup ready", zap.String("view", view), zap.Int64("rows", count))
	}

	logger.Info("database initialization complete")
}
