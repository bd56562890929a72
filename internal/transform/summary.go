package transform

import (
	"encoding/json"
	"errors"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"pulseline/internal/db"
	"pulseline/internal/extract"
	"pulseline/internal/load"
	"pulseline/internal/source"
	"pulseline/internal/stream"
)

var errMissingTime = errors.New("missing time of day")

// SummaryTransformer canonicalizes the one-per-day summary candidate.
// Resting heart rate is optional (null on coercion failure); zone
// payloads are kept verbatim when they are valid JSON and dropped to
// null otherwise.
type SummaryTransformer struct {
	log *zap.Logger
}

func NewSummaryTransformer(log *zap.Logger) *SummaryTransformer {
	return &SummaryTransformer{log: log}
}

func (t *SummaryTransformer) Stream() stream.Stream { return stream.Summary }

func (t *SummaryTransformer) Transform(batch extract.Batch) ([]load.Row, Stats) {
	var stats Stats
	rows := make([]load.Row, 0, len(batch.Records))

	for _, rec := range batch.Records {
		stats.TotalRecords++

		c, ok := rec.(extract.SummaryCandidate)
		if !ok {
			stats.InvalidRecords++
			continue
		}
		if c.Date.IsZero() {
			stats.InvalidRecords++
			continue
		}

		var resting *int
		if c.RestingHeartRate != nil {
			if f, coerced := source.AsFloat(c.RestingHeartRate); coerced {
				n := int(f)
				resting = &n
			} else {
				t.log.Debug("invalid resting heart rate, storing null",
					zap.Any("value", c.RestingHeartRate))
			}
		}

		entity := c.EntityID
		if entity == "" {
			entity = defaultEntityID
		}

		rows = append(rows, db.HeartRateSummary{
			Timestamp:            c.Date.UTC(),
			EntityID:             entity,
			RestingHeartRate:     resting,
			HeartRateZones:       zonesJSON(c.Zones),
			CustomHeartRateZones: zonesJSON(c.CustomZones),
		})
		stats.ValidRecords++
	}

	t.log.Debug("summary transform completed",
		zap.Int("valid", stats.ValidRecords), zap.Int("invalid", stats.InvalidRecords))
	return rows, stats
}

func zonesJSON(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 || !json.Valid(raw) {
		return nil
	}
	return datatypes.JSON(raw)
}
