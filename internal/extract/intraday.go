package extract

import (
	"time"

	"go.uber.org/zap"

	"pulseline/internal/source"
	"pulseline/internal/stream"
)

// IntradayCandidate is one per-sample reading in source vocabulary.
// Date is always the date under extraction: dates embedded in replayed
// cache data go stale under cyclic reuse and are never trusted.
type IntradayCandidate struct {
	Date      time.Time
	TimeOfDay string
	Value     any
	EntityID  string
}

// IntradayExtractor flattens the nested intraday dataset of a replayed
// day record into one candidate per sample, then applies the configured
// perturbation policy to the value series.
type IntradayExtractor struct {
	cache    *source.ReplayCache
	perturb  source.Perturbation
	entityID string
	log      *zap.Logger
}

func NewIntradayExtractor(cache *source.ReplayCache, entityID string, perturb source.Perturbation, log *zap.Logger) *IntradayExtractor {
	return &IntradayExtractor{cache: cache, perturb: perturb, entityID: entityID, log: log}
}

func (e *IntradayExtractor) Stream() stream.Stream { return stream.Intraday }

func (e *IntradayExtractor) Extract(date time.Time) Batch {
	batch := Batch{Stream: stream.Intraday}

	rec, err := e.cache.DayRecord(date)
	if err != nil {
		e.log.Warn("no intraday data for date",
			zap.String("date", date.Format("2006-01-02")), zap.Error(err))
		return batch
	}
	if len(rec.HeartRateDay) == 0 {
		e.log.Warn("malformed day record, skipping date",
			zap.String("date", date.Format("2006-01-02")))
		return batch
	}

	dataset := rec.HeartRateDay[0].Intraday.Dataset
	values := make([]any, 0, len(dataset))
	times := make([]string, 0, len(dataset))
	for _, s := range dataset {
		if s.Time == "" || s.Value == nil {
			continue
		}
		times = append(times, s.Time)
		values = append(values, s.Value)
	}

	if e.perturb != nil {
		values = e.perturb(values)
	}

	batch.Records = make([]Candidate, len(times))
	for i := range times {
		batch.Records[i] = IntradayCandidate{
			Date:      date,
			TimeOfDay: times[i],
			Value:     values[i],
			EntityID:  e.entityID,
		}
	}

	e.log.Debug("extracted intraday records",
		zap.String("date", date.Format("2006-01-02")), zap.Int("records", len(batch.Records)))
	return batch
}
