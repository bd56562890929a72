package db

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pulseline/internal/stream"
)

// TableStore is the boundary a loader consumes storage through:
// schema provisioning, watermark reads, and row counts. Provisioning
// SQL stays behind this interface so the pipeline never sees it.
type TableStore interface {
	Stream() stream.Stream
	EnsureSchema(ctx context.Context) error
	// LastTimestamp returns the stream's watermark. The bool is false
	// when the table holds no rows yet. Always re-read from the store
	// of record, never cached across runs.
	LastTimestamp(ctx context.Context) (time.Time, bool, error)
	Count(ctx context.Context) (int64, error)
}

type tableStore struct {
	db         *gorm.DB
	log        *zap.Logger
	strm       stream.Stream
	model      any
	hypertable bool
}

// NewPointStore backs the raw intraday stream. The table is promoted to
// a TimescaleDB hypertable when the extension is available.
func NewPointStore(gdb *gorm.DB, log *zap.Logger) TableStore {
	return &tableStore{db: gdb, log: log, strm: stream.Intraday, model: &HeartRatePoint{}, hypertable: true}
}

// NewSummaryStore backs the daily summary stream.
func NewSummaryStore(gdb *gorm.DB, log *zap.Logger) TableStore {
	return &tableStore{db: gdb, log: log, strm: stream.Summary, model: &HeartRateSummary{}}
}

func (s *tableStore) Stream() stream.Stream { return s.strm }

func (s *tableStore) EnsureSchema(ctx context.Context) error {
	var one int
	if err := s.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		return fmt.Errorf("connectivity check for %s: %w", s.strm.Name, err)
	}

	if err := s.db.WithContext(ctx).AutoMigrate(s.model); err != nil {
		return fmt.Errorf("migrate %s: %w", s.strm.Name, err)
	}

	if s.hypertable {
		// Best effort: plain PostgreSQL still satisfies the upsert and
		// query contracts, only the rollup views need Timescale.
		err := s.db.WithContext(ctx).Exec(
			"SELECT create_hypertable(?, ?, if_not_exists => TRUE, migrate_data => TRUE)",
			s.strm.Name, s.strm.TimeColumn,
		).Error
		if err != nil {
			s.log.Warn("hypertable creation skipped",
				zap.String("table", s.strm.Name), zap.Error(err))
		}
	}

	idx := fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_timestamp_entity_id ON %s (timestamp, entity_id)",
		s.strm.Name, s.strm.Name,
	)
	if err := s.db.WithContext(ctx).Exec(idx).Error; err != nil {
		return fmt.Errorf("unique index on %s: %w", s.strm.Name, err)
	}

	return nil
}

func (s *tableStore) LastTimestamp(ctx context.Context) (time.Time, bool, error) {
	var last *time.Time
	q := fmt.Sprintf("SELECT MAX(%s) FROM %s", s.strm.TimeColumn, s.strm.Name)
	if err := s.db.WithContext(ctx).Raw(q).Scan(&last).Error; err != nil {
		return time.Time{}, false, fmt.Errorf("watermark for %s: %w", s.strm.Name, err)
	}
	if last == nil {
		return time.Time{}, false, nil
	}
	return last.UTC(), true, nil
}

func (s *tableStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Table(s.strm.Name).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", s.strm.Name, err)
	}
	return n, nil
}
