package query

import (
	"errors"
	"fmt"
	"time"
)

// Resolution describes the source chosen for one query: which table,
// at which native granularity, and which columns to read. Derived per
// request, never persisted.
type Resolution struct {
	Table       string
	Interval    string
	TimeColumn  string
	ValueColumn string
	Description string
}

// ErrInvalidInterval marks a bad requested-interval token; handlers
// surface it as a client error.
var ErrInvalidInterval = errors.New("invalid interval")

// bucketInterval maps requested interval tokens onto time_bucket widths.
var bucketInterval = map[string]string{
	"1s": "1 second",
	"1m": "1 minute",
	"1h": "1 hour",
	"1d": "1 day",
}

// ValidInterval reports whether tok is an accepted requested-interval
// token.
func ValidInterval(tok string) bool {
	_, ok := bucketInterval[tok]
	return ok
}

// ResolveSource picks the source table from the span of the query
// (end - start), not the number of matching rows:
//
//	< 2 minutes  -> raw samples
//	<= 2 hours   -> minute rollup
//	<= 7 days    -> hour rollup
//	otherwise    -> day rollup
func ResolveSource(start, end time.Time) Resolution {
	span := end.Sub(start)
	switch {
	case span < 2*time.Minute:
		return Resolution{
			Table:       "heart_rate_intraday",
			Interval:    "raw",
			TimeColumn:  "timestamp",
			ValueColumn: "value",
			Description: "Raw heart rate data (per sample)",
		}
	case span <= 2*time.Hour:
		return Resolution{
			Table:       "heart_rate_intraday_1m",
			Interval:    "1m",
			TimeColumn:  "minute",
			ValueColumn: "avg_heart_rate",
			Description: "1-minute aggregated heart rate data",
		}
	case span <= 7*24*time.Hour:
		return Resolution{
			Table:       "heart_rate_intraday_1h",
			Interval:    "1h",
			TimeColumn:  "hour",
			ValueColumn: "avg_heart_rate",
			Description: "1-hour aggregated heart rate data",
		}
	default:
		return Resolution{
			Table:       "heart_rate_intraday_1d",
			Interval:    "1d",
			TimeColumn:  "day",
			ValueColumn: "avg_heart_rate",
			Description: "1-day aggregated heart rate data",
		}
	}
}

// BuildQuery renders the fetch SQL for a resolution. With no requested
// interval the source's native columns are read directly. An explicit
// interval always re-buckets via time-windowed averaging over the
// chosen source, whatever its native granularity. Requesting a fine
// interval over a coarse source averages already-aggregated values
// (documented limitation: raw detail is not re-derived once aggregated
// away). Placeholders: start, end, entity id.
func BuildQuery(res Resolution, requestedInterval string) (string, error) {
	if requestedInterval == "" {
		return fmt.Sprintf(`
			SELECT %s AS timestamp, ROUND(%s::numeric, 2) AS value, entity_id
			FROM %s
			WHERE %s >= ? AND %s <= ? AND entity_id = ? AND %s IS NOT NULL
			ORDER BY %s`,
			res.TimeColumn, res.ValueColumn, res.Table,
			res.TimeColumn, res.TimeColumn, res.ValueColumn, res.TimeColumn,
		), nil
	}

	width, ok := bucketInterval[requestedInterval]
	if !ok {
		return "", fmt.Errorf("%w %q (valid: 1s, 1m, 1h, 1d)", ErrInvalidInterval, requestedInterval)
	}

	return fmt.Sprintf(`
		SELECT time_bucket('%s', %s) AS timestamp, ROUND(AVG(%s)::numeric, 2) AS value, entity_id
		FROM %s
		WHERE %s >= ? AND %s <= ? AND entity_id = ? AND %s IS NOT NULL
		GROUP BY time_bucket('%s', %s), entity_id
		ORDER BY timestamp`,
		width, res.TimeColumn, res.ValueColumn, res.Table,
		res.TimeColumn, res.TimeColumn, res.ValueColumn,
		width, res.TimeColumn,
	), nil
}
