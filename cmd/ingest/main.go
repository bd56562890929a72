package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"pulseline/internal/config"
	"pulseline/internal/db"
	"pulseline/internal/extract"
	"pulseline/internal/load"
	"pulseline/internal/logging"
	"pulseline/internal/pipeline"
	"pulseline/internal/source"
	"pulseline/internal/stream"
	"pulseline/internal/transform"
)

// Exit codes: 0 records loaded (or nothing new), 3 no new data, 1 failure.
const (
	exitOK        = 0
	exitFailure   = 1
	exitNoNewData = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Printf("invalid configuration: %v", err)
		return exitFailure
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		log.Printf("failed to build logger: %v", err)
		return exitFailure
	}
	defer logger.Sync()

	gdb, err := db.Connect(cfg)
	if err != nil {
		logger.Error("failed to connect database", zap.Error(err))
		return exitFailure
	}

	pipeline.InitMetrics()

	intradayCache := source.NewReplayCache(cfg.CacheDir, stream.Intraday.Name, logger)
	summaryCache := source.NewReplayCache(cfg.CacheDir, stream.Summary.Name, logger)

	perturb := source.JitterValues(cfg.Seed)
	if cfg.SeedPolicy == "rotate" {
		perturb = source.RotateValues(cfg.Seed)
	}

	extractors := []extract.Extractor{
		extract.NewIntradayExtractor(intradayCache, cfg.EntityID, perturb, logger),
		extract.NewSummaryExtractor(summaryCache, cfg.EntityID, cfg.Seed, logger),
	}
	transformers := []transform.Transformer{
		transform.NewIntradayTransformer(logger),
		transform.NewSummaryTransformer(logger),
	}
	loaders := []load.Loader{
		load.NewIntradayLoader(gdb, db.NewPointStore(gdb, logger), cfg.BatchSize, logger),
		load.NewSummaryLoader(gdb, db.NewSummaryStore(gdb, logger), logger),
	}

	p := pipeline.New(extractors, transformers, loaders, pipeline.Options{
		StartDate:  cfg.StartDate,
		EndDate:    cfg.EndDate,
		DeltaMode:  cfg.DeltaMode,
		UpsertMode: cfg.UpsertMode,
	}, logger)

	if err := p.Run(context.Background()); err != nil {
		logger.Error("pipeline run failed", zap.Error(err))
		return exitFailure
	}
	if p.Stats().RecordsLoaded == 0 {
		logger.Info("no new records to load")
		return exitNoNewData
	}
	return exitOK
}
