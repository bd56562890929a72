package transform

import (
	"time"

	"go.uber.org/zap"

	"pulseline/internal/db"
	"pulseline/internal/extract"
	"pulseline/internal/load"
	"pulseline/internal/source"
	"pulseline/internal/stream"
)

// defaultEntityID backstops records that somehow lost their entity
// stamp, matching the upstream system's fallback.
const defaultEntityID = "default_user"

// IntradayTransformer combines the candidate's date and time-of-day
// into the persisted timestamp and coerces the value. The timestamp is
// part of the composite key and therefore always mandatory; a value
// that is present but uncoercible falls back to 0.0 rather than
// rejecting the record.
type IntradayTransformer struct {
	log *zap.Logger
}

func NewIntradayTransformer(log *zap.Logger) *IntradayTransformer {
	return &IntradayTransformer{log: log}
}

func (t *IntradayTransformer) Stream() stream.Stream { return stream.Intraday }

func (t *IntradayTransformer) Transform(batch extract.Batch) ([]load.Row, Stats) {
	var stats Stats
	rows := make([]load.Row, 0, len(batch.Records))

	for _, rec := range batch.Records {
		stats.TotalRecords++

		c, ok := rec.(extract.IntradayCandidate)
		if !ok {
			stats.InvalidRecords++
			continue
		}

		ts, err := combineTimestamp(c.Date, c.TimeOfDay)
		if err != nil {
			t.log.Debug("rejecting record with unparsable timestamp",
				zap.String("time", c.TimeOfDay), zap.Error(err))
			stats.InvalidRecords++
			continue
		}

		if c.Value == nil {
			stats.InvalidRecords++
			continue
		}
		value, coerced := source.AsFloat(c.Value)
		if !coerced {
			value = 0.0 // documented coercion default
		}

		entity := c.EntityID
		if entity == "" {
			entity = defaultEntityID
		}

		rows = append(rows, db.HeartRatePoint{
			Timestamp: ts,
			EntityID:  entity,
			Value:     value,
		})
		stats.ValidRecords++
	}

	t.log.Debug("intraday transform completed",
		zap.Int("valid", stats.ValidRecords), zap.Int("invalid", stats.InvalidRecords))
	return rows, stats
}

// combineTimestamp joins the extraction date with a HH:MM:SS
// time-of-day into one UTC timestamp.
func combineTimestamp(date time.Time, timeOfDay string) (time.Time, error) {
	if timeOfDay == "" {
		return time.Time{}, errMissingTime
	}
	tod, err := time.Parse("15:04:05", timeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		tod.Hour(), tod.Minute(), tod.Second(), 0, time.UTC), nil
}
