package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Rollup views over the raw stream, one per granularity. The query
// resolver picks among these by span; see internal/query.
var rollups = []struct {
	view   string
	bucket string
	column string
}{
	{"heart_rate_intraday_1m", "1 minute", "minute"},
	{"heart_rate_intraday_1h", "1 hour", "hour"},
	{"heart_rate_intraday_1d", "1 day", "day"},
}

// ProvisionRollups creates the continuous-aggregate materialized views
// (minute/hour/day min/max/avg/count per entity) derived from the raw
// stream. Continuous aggregates cannot be created inside a transaction,
// so each statement runs on its own connection in autocommit mode.
func ProvisionRollups(gdb *gorm.DB, log *zap.Logger) error {
	for _, r := range rollups {
		stmt := fmt.Sprintf(`
			CREATE MATERIALIZED VIEW IF NOT EXISTS %s
			WITH (timescaledb.continuous) AS
			SELECT
			  entity_id,
			  time_bucket('%s', timestamp) AS %s,
			  ROUND(MIN(value)::numeric, 2) AS min_heart_rate,
			  ROUND(MAX(value)::numeric, 2) AS max_heart_rate,
			  ROUND(AVG(value)::numeric, 2) AS avg_heart_rate,
			  COUNT(*) AS record_count
			FROM heart_rate_intraday
			GROUP BY entity_id, %s`,
			r.view, r.bucket, r.column, r.column,
		)
		if err := gdb.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create rollup %s: %w", r.view, err)
		}
		log.Info("rollup view ready", zap.String("view", r.view))
	}
	return nil
}

// RollupCounts reports row counts per rollup view, used by dbinit to
// summarize existing data.
func RollupCounts(ctx context.Context, gdb *gorm.DB) map[string]int64 {
	counts := make(map[string]int64, len(rollups))
	for _, r := range rollups {
		var n int64
		if err := gdb.WithContext(ctx).Table(r.view).Count(&n).Error; err != nil {
			continue
		}
		counts[r.view] = n
	}
	return counts
}
