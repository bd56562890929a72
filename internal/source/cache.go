package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// CycleLength is the number of cached day samples. Dates outside the
// cached window replay cyclically: shift(d) == shift(d + CycleLength days).
const CycleLength = 30

// baseDate anchors the shift computation. It matches the window the
// original sample set was captured over.
var baseDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// ErrNotFound reports that no day record could be served because the
// backing cache is absent and could not be regenerated.
var ErrNotFound = errors.New("source: day record not found")

// ReplayCache supplies one DayRecord per calendar date by cyclically
// replaying a fixed 30-day cached sample set. A missing cache file is
// regenerated deterministically and written back.
type ReplayCache struct {
	name string
	path string
	log  *zap.Logger
	days []DayRecord
}

// NewReplayCache returns a cache backed by <dir>/<name>_data.json.
// Loading is lazy: the file is read (or generated) on first use.
func NewReplayCache(dir, name string, log *zap.Logger) *ReplayCache {
	return &ReplayCache{
		name: name,
		path: filepath.Join(dir, name+"_data.json"),
		log:  log,
	}
}

// Shift maps a target date onto the cyclic cache index:
// (date - baseDate) days mod CycleLength, always non-negative.
func (c *ReplayCache) Shift(date time.Time) int {
	d := int(dateOnly(date).Sub(baseDate).Hours() / 24)
	return ((d % CycleLength) + CycleLength) % CycleLength
}

// DayRecord returns the cached sample for the given date, wrapping
// ErrNotFound when the cache is unusable. Callers either skip the date
// or synthesize a documented fallback.
func (c *ReplayCache) DayRecord(date time.Time) (*DayRecord, error) {
	if err := c.ensureLoaded(); err != nil {
		return nil, err
	}
	idx := c.Shift(date)
	if idx >= len(c.days) {
		return nil, fmt.Errorf("%w: cache %s holds %d days, want index %d", ErrNotFound, c.name, len(c.days), idx)
	}
	rec := c.days[idx]
	return &rec, nil
}

func (c *ReplayCache) ensureLoaded() error {
	if c.days != nil {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		c.log.Warn("cache file missing, regenerating",
			zap.String("cache", c.name), zap.String("path", c.path))
		if err := c.regenerate(); err != nil {
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		data, err = os.ReadFile(c.path)
	}
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrNotFound, c.path, err)
	}

	var days []DayRecord
	if err := json.Unmarshal(data, &days); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrNotFound, c.path, err)
	}
	if len(days) == 0 {
		return fmt.Errorf("%w: cache %s is empty", ErrNotFound, c.name)
	}
	c.days = days
	c.log.Info("loaded replay cache",
		zap.String("cache", c.name), zap.Int("days", len(days)))
	return nil
}

func (c *ReplayCache) regenerate() error {
	days := GenerateDays(GeneratorSeed, GeneratorCadence)
	data, err := json.Marshal(days)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return err
	}
	c.log.Info("regenerated replay cache",
		zap.String("cache", c.name), zap.Int("days", len(days)))
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
