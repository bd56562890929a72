package load

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pulseline/internal/db"
	"pulseline/internal/stream"
)

// writeFunc commits one batch inside a single transaction. Injected so
// batching semantics are testable without a live database.
type writeFunc func(ctx context.Context, batch []Row, upsert bool) error

// BatchLoader is the one Loader implementation; the per-stream
// constructors below differ only in batch size and write target.
type BatchLoader struct {
	strm      stream.Stream
	store     db.TableStore
	write     writeFunc
	batchSize int
	log       *zap.Logger
	stats     Stats
}

// NewIntradayLoader writes raw samples in batches of batchSize.
func NewIntradayLoader(gdb *gorm.DB, store db.TableStore, batchSize int, log *zap.Logger) *BatchLoader {
	return &BatchLoader{
		strm:      stream.Intraday,
		store:     store,
		write:     gormWriter[db.HeartRatePoint](gdb, stream.Intraday, []string{"value"}),
		batchSize: batchSize,
		log:       log,
	}
}

// NewSummaryLoader uses batch size 1: the summary stream is one row per
// day, so each day commits on its own.
func NewSummaryLoader(gdb *gorm.DB, store db.TableStore, log *zap.Logger) *BatchLoader {
	return &BatchLoader{
		strm:  stream.Summary,
		store: store,
		write: gormWriter[db.HeartRateSummary](gdb, stream.Summary,
			[]string{"resting_heart_rate", "heart_rate_zones", "custom_heart_rate_zones"}),
		batchSize: 1,
		log:       log,
	}
}

func (l *BatchLoader) Stream() stream.Stream { return l.strm }

func (l *BatchLoader) Setup(ctx context.Context) error {
	return l.store.EnsureSchema(ctx)
}

func (l *BatchLoader) LastTimestamp(ctx context.Context) (time.Time, bool, error) {
	return l.store.LastTimestamp(ctx)
}

func (l *BatchLoader) Load(ctx context.Context, rows []Row, upsert bool) error {
	l.stats = Stats{TotalRecords: len(rows)}
	if len(rows) == 0 {
		return nil
	}

	total := len(rows)
	for start := 0; start < total; start += l.batchSize {
		end := start + l.batchSize
		if end > total {
			end = total
		}
		batch := rows[start:end]
		batchNum := start/l.batchSize + 1

		if err := l.write(ctx, batch, upsert); err != nil {
			l.stats.BatchesFailed++
			l.stats.FailedRecords += len(batch)
			// No partial commits within one load call: abort the rest.
			return fmt.Errorf("stream %s batch %d: %w", l.strm.Name, batchNum, err)
		}
		l.stats.BatchesProcessed++
		l.stats.InsertedRecords += len(batch)

		l.log.Debug("batch committed",
			zap.String("stream", l.strm.Name),
			zap.Int("batch", batchNum),
			zap.Int("records", end),
			zap.Int("total", total))
	}

	l.log.Info("load completed",
		zap.String("stream", l.strm.Name),
		zap.Int("records", l.stats.InsertedRecords),
		zap.Int("batches", l.stats.BatchesProcessed),
		zap.Bool("upsert", upsert))
	return nil
}

func (l *BatchLoader) Verify(ctx context.Context, expectedMin int64) bool {
	n, err := l.store.Count(ctx)
	if err != nil {
		l.log.Warn("load verification failed to read count",
			zap.String("stream", l.strm.Name), zap.Error(err))
		return false
	}
	if n < expectedMin {
		l.log.Warn("load verification mismatch",
			zap.String("stream", l.strm.Name),
			zap.Int64("count", n), zap.Int64("expected_min", expectedMin))
		return false
	}
	l.log.Debug("load verification passed",
		zap.String("stream", l.strm.Name),
		zap.Int64("count", n), zap.Int64("expected_min", expectedMin))
	return true
}

func (l *BatchLoader) Stats() Stats { return l.stats }

// gormWriter commits one typed batch in a single transaction, with
// insert-or-update on the stream's key columns when upsert is on.
func gormWriter[T Row](gdb *gorm.DB, strm stream.Stream, updateCols []string) writeFunc {
	conflict := make([]clause.Column, len(strm.KeyColumns))
	for i, c := range strm.KeyColumns {
		conflict[i] = clause.Column{Name: c}
	}

	return func(ctx context.Context, batch []Row, upsert bool) error {
		typed := make([]T, 0, len(batch))
		for _, r := range batch {
			t, ok := r.(T)
			if !ok {
				return fmt.Errorf("row type %T does not belong to stream %s", r, strm.Name)
			}
			typed = append(typed, t)
		}

		return gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			q := tx
			if upsert {
				q = q.Clauses(clause.OnConflict{
					Columns:   conflict,
					DoUpdates: clause.AssignmentColumns(updateCols),
				})
			}
			return q.Create(&typed).Error
		})
	}
}
