package main

import (
	"log"

	"github.com/fasthttp/router"
	"github.com/joho/godotenv"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"pulseline/internal/config"
	"pulseline/internal/db"
	"pulseline/internal/http/handlers"
	appmw "pulseline/internal/http/middleware"
	"pulseline/internal/logging"
	"pulseline/internal/query"
)

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

	svc := query.NewService(gdb, cfg.QueryFanout, logger)

	handlers.InitPrometheusMetrics()

	r := router.New()

	r.GET("/healthz", handlers.Health(svc, logger))
	r.GET("/v1/timeseries", handlers.Timeseries(svc, logger))
	r.GET("/v1/timeseries/multi", handlers.MultiTimeseries(svc, logger))
	r.GET("/v1/entities", handlers.Entities(svc, logger))
	r.GET("/metrics", handlers.MetricsHandler())

	handler := appmw.RequestLogger(logger)(r.Handler)

	logger.Info("pulseline listening", zap.String("addr", cfg.ListenAddr))
	if err := fasthttp.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
