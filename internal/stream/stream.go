package stream

// Stream describes one logical time series: its table name, persisted
// columns, and the composite key that backs upserts. KeyColumns always
// include the timestamp column and the entity column; together they form
// the uniqueness constraint, so re-ingesting the same key overwrites
// rather than duplicates.
type Stream struct {
	Name       string
	Columns    []string
	KeyColumns []string
	TimeColumn string
}

// The two registered streams. Intraday carries one row per sample,
// summary carries one row per calendar day.
var (
	Intraday = Stream{
		Name:       "heart_rate_intraday",
		Columns:    []string{"timestamp", "value", "entity_id"},
		KeyColumns: []string{"timestamp", "entity_id"},
		TimeColumn: "timestamp",
	}

	Summary = Stream{
		Name:       "heart_rate_summary",
		Columns:    []string{"timestamp", "resting_heart_rate", "heart_rate_zones", "custom_heart_rate_zones", "entity_id"},
		KeyColumns: []string{"timestamp", "entity_id"},
		TimeColumn: "timestamp",
	}
)
