package query

import (
	"context"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Point is one response sample.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	EntityID  string    `gorm:"column:entity_id" json:"entity_id"`
}

// Info is the resolution metadata returned alongside the data.
type Info struct {
	TableUsed   string `json:"table_used"`
	Description string `json:"table_description"`
	Interval    string `json:"interval"`
}

// EntitySeries is one entity's slice of a multi-entity response. A
// failed entity keeps its slot with empty data and count zero.
type EntitySeries struct {
	EntityID string  `json:"entity_id"`
	Data     []Point `json:"data"`
	Count    int     `json:"count"`
}

// EntityInfo summarizes one known entity.
type EntityInfo struct {
	EntityID    string    `gorm:"column:entity_id" json:"entity_id"`
	RecordCount int64     `json:"record_count"`
	FirstRecord time.Time `json:"first_record"`
	LastRecord  time.Time `json:"last_record"`
}

// fetchFunc fetches one entity's series; injected in tests.
type fetchFunc func(ctx context.Context, start, end time.Time, entityID, interval string) ([]Point, error)

// Service resolves and executes time-series fetches. Multi-entity
// queries fan out over a bounded worker pool with per-entity failure
// isolation.
type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	pool  pond.Pool
	fetch fetchFunc
}

func NewService(gdb *gorm.DB, fanout int, log *zap.Logger) *Service {
	s := &Service{db: gdb, log: log, pool: pond.NewPool(fanout)}
	s.fetch = s.fetchSeries
	return s
}

// Ping verifies database connectivity for health checks.
func (s *Service) Ping(ctx context.Context) error {
	var one int
	return s.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error
}

// Timeseries fetches one entity's data with automatic source
// resolution. Single-entity queries either fully succeed or fully
// error; there is no partial response.
func (s *Service) Timeseries(ctx context.Context, start, end time.Time, entityID, interval string) ([]Point, Info, error) {
	res := ResolveSource(start, end)
	points, err := s.fetch(ctx, start, end, entityID, interval)
	if err != nil {
		return nil, Info{}, err
	}
	return points, resolutionInfo(res, interval), nil
}

// MultiTimeseries fetches several entities concurrently. A failing
// entity yields an empty series with count zero and never fails the
// batch for the others.
func (s *Service) MultiTimeseries(ctx context.Context, start, end time.Time, entityIDs []string, interval string) ([]EntitySeries, Info) {
	results := make([]EntitySeries, len(entityIDs))
	group := s.pool.NewGroup()

	for i, id := range entityIDs {
		i, id := i, id
		group.Submit(func() {
			points, err := s.fetch(ctx, start, end, id, interval)
			if err != nil {
				s.log.Warn("entity fetch failed, degrading to empty series",
					zap.String("entity_id", id), zap.Error(err))
				results[i] = EntitySeries{EntityID: id, Data: []Point{}}
				return
			}
			results[i] = EntitySeries{EntityID: id, Data: points, Count: len(points)}
		})
	}
	_ = group.Wait()

	return results, resolutionInfo(ResolveSource(start, end), interval)
}

// DefaultEntityID returns the first real entity in the raw stream, or a
// fixed fallback when none exists.
func (s *Service) DefaultEntityID(ctx context.Context) string {
	var id string
	err := s.db.WithContext(ctx).Raw(`
		SELECT entity_id FROM heart_rate_intraday
		WHERE entity_id IS NOT NULL AND entity_id <> '' AND entity_id <> 'default_user'
		LIMIT 1`).Scan(&id).Error
	if err != nil || id == "" {
		return "user1"
	}
	return id
}

// Entities lists known entities with basic per-entity stats.
func (s *Service) Entities(ctx context.Context) ([]EntityInfo, error) {
	var infos []EntityInfo
	err := s.db.WithContext(ctx).Raw(`
		SELECT entity_id,
		       COUNT(*) AS record_count,
		       MIN(timestamp) AS first_record,
		       MAX(timestamp) AS last_record
		FROM heart_rate_intraday
		WHERE entity_id IS NOT NULL AND entity_id <> '' AND entity_id <> 'default_user'
		GROUP BY entity_id
		ORDER BY last_record DESC, entity_id ASC`).Scan(&infos).Error
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	return infos, nil
}

func (s *Service) fetchSeries(ctx context.Context, start, end time.Time, entityID, interval string) ([]Point, error) {
	res := ResolveSource(start, end)
	sql, err := BuildQuery(res, interval)
	if err != nil {
		return nil, err
	}
	var points []Point
	if err := s.db.WithContext(ctx).Raw(sql, start, end, entityID).Scan(&points).Error; err != nil {
		return nil, fmt.Errorf("timeseries fetch from %s: %w", res.Table, err)
	}
	return points, nil
}

func resolutionInfo(res Resolution, interval string) Info {
	info := Info{TableUsed: res.Table, Description: res.Description, Interval: res.Interval}
	if interval != "" {
		info.Interval = interval
	}
	return info
}
