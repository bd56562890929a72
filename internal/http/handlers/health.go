package handlers

import (
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

type healthResponse struct {
	Status            string  `json:"status"`
	Timestamp         string  `json:"timestamp"`
	ResponseTimeSec   float64 `json:"response_time_seconds"`
	DatabaseConnected bool    `json:"database_connected"`
}

// Health serves GET /healthz: liveness plus a database round trip.
func Health(svc TimeseriesService, log *zap.Logger) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		started := time.Now()
		resp := healthResponse{Status: "healthy", DatabaseConnected: true}

		if err := svc.Ping(ctx); err != nil {
			log.Warn("health check database ping failed", zap.Error(err))
			resp.Status = "unhealthy"
			resp.DatabaseConnected = false
		}

		resp.Timestamp = time.Now().UTC().Format(time.RFC3339)
		resp.ResponseTimeSec = time.Since(started).Seconds()

		status := fasthttp.StatusOK
		if !resp.DatabaseConnected {
			status = fasthttp.StatusServiceUnavailable
		}
		writeJSON(ctx, status, resp)
	}
}

// Entities serves GET /v1/entities.
func Entities(svc TimeseriesService, log *zap.Logger) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		infos, err := svc.Entities(ctx)
		if err != nil {
			log.Error("entity listing failed", zap.Error(err))
			serverError(ctx)
			return
		}
		writeJSON(ctx, fasthttp.StatusOK, map[string]any{
			"entities":     infos,
			"total_count":  len(infos),
			"last_updated": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
