package handlers

import (
	"bytes"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/valyala/fasthttp"
)

var (
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulseline",
			Name:      "queries_total",
			Help:      "Total number of served time-series queries.",
		},
		[]string{"endpoint"},
	)
	pointsReturned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulseline",
			Name:      "query_points_total",
			Help:      "Total data points returned, per entity.",
		},
		[]string{"entity_id"},
	)
)

// InitPrometheusMetrics registers the query-side collectors with the
// default registry. Must run before the handlers serve traffic.
func InitPrometheusMetrics() {
	prometheus.MustRegister(queriesTotal, pointsReturned)
}

// MetricsHandler serves GET /metrics in Prometheus text exposition
// format. An optional entity_id parameter narrows entity-labelled
// families to that entity.
func MetricsHandler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		entityID := string(ctx.QueryArgs().Peek("entity_id"))

		metricFamilies, err := prometheus.DefaultGatherer.Gather()
		if err != nil {
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
			ctx.SetBodyString("failed to gather metrics")
			return
		}

		if entityID != "" {
			metricFamilies = filterByEntity(metricFamilies, entityID)
		}

		var buf bytes.Buffer
		encoder := expfmt.NewEncoder(&buf, expfmt.FmtText)
		for _, mf := range metricFamilies {
			if err := encoder.Encode(mf); err != nil {
				ctx.SetStatusCode(fasthttp.StatusInternalServerError)
				ctx.SetBodyString("failed to encode metrics")
				return
			}
		}

		ctx.SetContentType(string(expfmt.FmtText))
		ctx.Response.Header.Set("Cache-Control", "no-store")
		ctx.SetBody(buf.Bytes())
	}
}

// filterByEntity keeps families without an entity_id label untouched
// and narrows the rest to the requested entity, dropping families left
// empty.
func filterByEntity(families []*dto.MetricFamily, entityID string) []*dto.MetricFamily {
	filtered := make([]*dto.MetricFamily, 0, len(families))
	for _, mf := range families {
		hasEntityLabel := false
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "entity_id" {
					hasEntityLabel = true
					break
				}
			}
			if hasEntityLabel {
				break
			}
		}
		if !hasEntityLabel {
			filtered = append(filtered, mf)
			continue
		}

		var kept []*dto.Metric
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "entity_id" && l.GetValue() == entityID {
					kept = append(kept, m)
					break
				}
			}
		}
		if len(kept) == 0 {
			continue
		}
		filtered = append(filtered, &dto.MetricFamily{
			Name:   mf.Name,
			Help:   mf.Help,
			Type:   mf.Type,
			Metric: kept,
		})
	}
	return filtered
}
