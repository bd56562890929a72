package db

import (
	"time"

	"gorm.io/datatypes"
)

// HeartRatePoint is one intraday sample in the raw stream. The
// composite primary key (timestamp, entity_id) doubles as the upsert
// conflict target: re-ingesting the same key overwrites, never
// duplicates.
type HeartRatePoint struct {
	Timestamp time.Time `gorm:"column:timestamp;primaryKey;not null" json:"timestamp"`
	EntityID  string    `gorm:"column:entity_id;primaryKey;not null" json:"entity_id"`
	Value     float64   `gorm:"column:value;not null" json:"value"`
}

func (HeartRatePoint) TableName() string { return "heart_rate_intraday" }

// ObservedAt satisfies the delta-filtering contract in internal/load.
func (p HeartRatePoint) ObservedAt() time.Time { return p.Timestamp }

// HeartRateSummary is the one-row-per-day summary stream. Zone
// structures are stored as opaque JSON, exactly as received.
type HeartRateSummary struct {
	Timestamp            time.Time      `gorm:"column:timestamp;primaryKey;not null" json:"timestamp"`
	EntityID             string         `gorm:"column:entity_id;primaryKey;not null" json:"entity_id"`
	RestingHeartRate     *int           `gorm:"column:resting_heart_rate" json:"resting_heart_rate"`
	HeartRateZones       datatypes.JSON `gorm:"column:heart_rate_zones;type:jsonb" json:"heart_rate_zones"`
	CustomHeartRateZones datatypes.JSON `gorm:"column:custom_heart_rate_zones;type:jsonb" json:"custom_heart_rate_zones"`
}

func (HeartRateSummary) TableName() string { return "heart_rate_summary" }

func (s HeartRateSummary) ObservedAt() time.Time { return s.Timestamp }
