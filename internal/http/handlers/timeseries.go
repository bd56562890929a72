package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"pulseline/internal/query"
)

// TimeseriesService is the query-side contract the handlers consume.
// *query.Service satisfies it; tests use a stub.
type TimeseriesService interface {
	Ping(ctx context.Context) error
	Timeseries(ctx context.Context, start, end time.Time, entityID, interval string) ([]query.Point, query.Info, error)
	MultiTimeseries(ctx context.Context, start, end time.Time, entityIDs []string, interval string) ([]query.EntitySeries, query.Info)
	DefaultEntityID(ctx context.Context) string
	Entities(ctx context.Context) ([]query.EntityInfo, error)
}

const (
	maxSingleEntityDays = 365
	maxMultiEntityDays  = 180
	maxEntities         = 5
)

// defaultEntityIDs is the fallback list for multi-entity queries when
// no entity_ids parameter is supplied.
var defaultEntityIDs = []string{"user1", "user2"}

type timeseriesResponse struct {
	Data     any            `json:"data"`
	Metadata map[string]any `json:"metadata"`
}

// Timeseries serves GET /v1/timeseries: one entity, automatic source
// resolution, optional explicit output interval. Defaults to the last
// 7 days.
func Timeseries(svc TimeseriesService, log *zap.Logger) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start, end, ok := parseWindow(ctx, maxSingleEntityDays)
		if !ok {
			return
		}

		interval := string(ctx.QueryArgs().Peek("interval"))
		if interval != "" && !query.ValidInterval(interval) {
			clientError(ctx, fmt.Sprintf("invalid interval %q, valid options: 1s, 1m, 1h, 1d", interval))
			return
		}

		entityID := string(ctx.QueryArgs().Peek("entity_id"))
		if entityID == "" {
			entityID = svc.DefaultEntityID(ctx)
		}

		points, info, err := svc.Timeseries(ctx, start, end, entityID, interval)
		if err != nil {
			if errors.Is(err, query.ErrInvalidInterval) {
				clientError(ctx, err.Error())
				return
			}
			log.Error("timeseries query failed",
				zap.String("entity_id", entityID), zap.Error(err))
			serverError(ctx)
			return
		}

		queriesTotal.WithLabelValues("timeseries").Inc()
		pointsReturned.WithLabelValues(entityID).Add(float64(len(points)))
		writeJSON(ctx, fasthttp.StatusOK, timeseriesResponse{
			Data:     points,
			Metadata: map[string]any{"query_info": info},
		})
	}
}

// MultiTimeseries serves GET /v1/timeseries/multi: up to five entities
// fetched concurrently, degrading entity by entity.
func MultiTimeseries(svc TimeseriesService, log *zap.Logger) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start, end, ok := parseWindow(ctx, maxMultiEntityDays)
		if !ok {
			return
		}

		interval := string(ctx.QueryArgs().Peek("interval"))
		if interval != "" && !query.ValidInterval(interval) {
			clientError(ctx, fmt.Sprintf("invalid interval %q, valid options: 1s, 1m, 1h, 1d", interval))
			return
		}

		entityIDs := defaultEntityIDs
		if raw := string(ctx.QueryArgs().Peek("entity_ids")); raw != "" {
			entityIDs = entityIDs[:0:0]
			for _, id := range strings.Split(raw, ",") {
				if id = strings.TrimSpace(id); id != "" {
					entityIDs = append(entityIDs, id)
				}
			}
		}
		if len(entityIDs) == 0 {
			clientError(ctx, "at least one entity id must be provided")
			return
		}
		if len(entityIDs) > maxEntities {
			clientError(ctx, "maximum "+strconv.Itoa(maxEntities)+" entities allowed for comparison")
			return
		}

		series, info := svc.MultiTimeseries(ctx, start, end, entityIDs, interval)

		queriesTotal.WithLabelValues("timeseries_multi").Inc()
		for _, s := range series {
			pointsReturned.WithLabelValues(s.EntityID).Add(float64(s.Count))
		}
		writeJSON(ctx, fasthttp.StatusOK, timeseriesResponse{
			Data:     series,
			Metadata: map[string]any{"query_info": info},
		})
	}
}

// parseWindow reads start_date/end_date (default: last 7 days) and
// validates ordering and span. On failure it writes the client error
// and returns ok=false.
func parseWindow(ctx *fasthttp.RequestCtx, maxDays int) (start, end time.Time, ok bool) {
	now := time.Now().UTC()
	start, end = now.AddDate(0, 0, -7), now

	if s := string(ctx.QueryArgs().Peek("start_date")); s != "" {
		t, err := parseTimestamp(s)
		if err != nil {
			clientError(ctx, "invalid start_date: "+s)
			return start, end, false
		}
		start = t
	}
	if s := string(ctx.QueryArgs().Peek("end_date")); s != "" {
		t, err := parseTimestamp(s)
		if err != nil {
			clientError(ctx, "invalid end_date: "+s)
			return start, end, false
		}
		end = t
	}

	if !start.Before(end) {
		clientError(ctx, "start date must be before end date")
		return start, end, false
	}
	if end.Sub(start) > time.Duration(maxDays)*24*time.Hour {
		clientError(ctx, fmt.Sprintf("date range too large, maximum %d days allowed", maxDays))
		return start, end, false
	}
	return start, end, true
}
