package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"pulseline/internal/extract"
	"pulseline/internal/load"
	"pulseline/internal/transform"
)

// State tracks the orchestrator through one run.
type State int

const (
	StateIdle State = iota
	StatePreflightChecked
	StateRangeDetermined
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreflightChecked:
		return "preflight_checked"
	case StateRangeDetermined:
		return "range_determined"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stats aggregates one run. A successful run with RecordsLoaded == 0
// means the delta filter found nothing new; it is distinct from a
// populated run but equally successful.
type Stats struct {
	TotalTime          time.Duration
	ExtractionTime     time.Duration
	TransformationTime time.Duration
	LoadingTime        time.Duration
	RecordsProcessed   int
	RecordsLoaded      int
	RecordsInvalid     int
	Success            bool
}

// Options carries the run-scoped configuration.
type Options struct {
	// StartDate/EndDate (YYYY-MM-DD), when both set, override
	// watermark-based range discovery entirely.
	StartDate string
	EndDate   string

	DeltaMode  bool
	UpsertMode bool

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// Pipeline drives Extract -> Transform -> Load per day over a
// discovered or explicit date range. Single-flow per run: sequential
// across dates and streams. Concurrent runs over the same streams must
// be serialized by the caller.
type Pipeline struct {
	extractors   []extract.Extractor
	transformers map[string]transform.Transformer
	loaders      map[string]load.Loader
	opts         Options
	log          *zap.Logger

	state State
	stats Stats

	// watermarks read once at range discovery; never cached across runs
	watermarks map[string]watermark
}

type watermark struct {
	ts  time.Time
	has bool
}

func New(extractors []extract.Extractor, transformers []transform.Transformer, loaders []load.Loader, opts Options, log *zap.Logger) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	p := &Pipeline{
		extractors:   extractors,
		transformers: make(map[string]transform.Transformer, len(transformers)),
		loaders:      make(map[string]load.Loader, len(loaders)),
		opts:         opts,
		log:          log,
		watermarks:   make(map[string]watermark),
	}
	for _, t := range transformers {
		p.transformers[t.Stream().Name] = t
	}
	for _, l := range loaders {
		p.loaders[l.Stream().Name] = l
	}
	return p
}

func (p *Pipeline) State() State { return p.state }
func (p *Pipeline) Stats() Stats { return p.stats }

// Run executes one complete pipeline pass. The returned error is nil
// for both populated and no-new-data runs.
func (p *Pipeline) Run(ctx context.Context) error {
	started := time.Now()
	err := p.run(ctx)
	p.stats.TotalTime = time.Since(started)

	if err != nil {
		p.state = StateFailed
		p.stats.Success = false
		runsTotal.WithLabelValues("failed").Inc()
		return err
	}
	p.state = StateCompleted
	p.stats.Success = true
	if p.stats.RecordsLoaded > 0 {
		runsTotal.WithLabelValues("loaded").Inc()
	} else {
		runsTotal.WithLabelValues("no_new_data").Inc()
	}

	p.log.Info("pipeline run finished",
		zap.Duration("total", p.stats.TotalTime),
		zap.Duration("extract", p.stats.ExtractionTime),
		zap.Duration("transform", p.stats.TransformationTime),
		zap.Duration("load", p.stats.LoadingTime),
		zap.Int("processed", p.stats.RecordsProcessed),
		zap.Int("loaded", p.stats.RecordsLoaded),
		zap.Int("invalid", p.stats.RecordsInvalid))
	return nil
}

func (p *Pipeline) run(ctx context.Context) error {
	if err := p.preflight(ctx); err != nil {
		return err
	}
	p.state = StatePreflightChecked

	start, end, err := p.determineRange(ctx)
	if err != nil {
		return err
	}
	p.state = StateRangeDetermined
	p.log.Info("processing date range",
		zap.String("start", start.Format("2006-01-02")),
		zap.String("end", end.Format("2006-01-02")))

	p.state = StateRunning
	return p.execute(ctx, start, end)
}

// preflight verifies every registered stream's store is reachable and
// schema-ready. Any failure here is fatal for the whole run.
func (p *Pipeline) preflight(ctx context.Context) error {
	if len(p.extractors) == 0 {
		return errors.New("no extractors registered")
	}
	for name, l := range p.loaders {
		if err := l.Setup(ctx); err != nil {
			return fmt.Errorf("preflight for %s: %w", name, err)
		}
		p.log.Debug("store ready", zap.String("stream", name))
	}
	return nil
}

// determineRange discovers [start, end] and snapshots per-stream
// watermarks. The overall start is the earliest missing day across
// streams, so a stream that is behind pulls the run's start backward.
func (p *Pipeline) determineRange(ctx context.Context) (time.Time, time.Time, error) {
	now := dateOnly(p.opts.Now())

	// Snapshot watermarks regardless of range overrides: the delta
	// filter needs them either way.
	for name, l := range p.loaders {
		ts, has, err := l.LastTimestamp(ctx)
		if err != nil {
			p.log.Warn("watermark read failed, treating stream as empty",
				zap.String("stream", name), zap.Error(err))
			p.watermarks[name] = watermark{}
			continue
		}
		p.watermarks[name] = watermark{ts: ts, has: has}
	}

	if strings.TrimSpace(p.opts.StartDate) != "" && strings.TrimSpace(p.opts.EndDate) != "" {
		start, err := parseDate(p.opts.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %w", err)
		}
		end, err := parseDate(p.opts.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date: %w", err)
		}
		p.log.Info("using explicit date range",
			zap.String("start", start.Format("2006-01-02")),
			zap.String("end", end.Format("2006-01-02")))
		return start, end, nil
	}

	var earliest time.Time
	for name, wm := range p.watermarks {
		if !wm.has {
			continue
		}
		next := dateOnly(wm.ts).AddDate(0, 0, 1)
		if next.After(now) {
			// clock skew guard
			p.log.Info("next date is in the future, skipping stream",
				zap.String("stream", name), zap.String("next", next.Format("2006-01-02")))
			continue
		}
		if earliest.IsZero() || next.Before(earliest) {
			earliest = next
			p.log.Info("found missing data",
				zap.String("stream", name), zap.String("from", next.Format("2006-01-02")))
		}
	}

	if !earliest.IsZero() {
		return earliest, now, nil
	}

	if strings.TrimSpace(p.opts.StartDate) != "" {
		start, err := parseDate(p.opts.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %w", err)
		}
		return start, now, nil
	}

	p.log.Info("no previous data found, loading last 30 days")
	return now.AddDate(0, 0, -30), now, nil
}

func (p *Pipeline) execute(ctx context.Context, start, end time.Time) error {
	// Extract every stream for every date in the range.
	phase := time.Now()
	var batches []extract.Batch
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		for _, ex := range p.extractors {
			if b := ex.Extract(d); len(b.Records) > 0 {
				batches = append(batches, b)
			}
		}
	}
	p.stats.ExtractionTime = time.Since(phase)

	if len(batches) == 0 {
		return errors.New("extraction produced no data for the whole range")
	}

	// Transform and delta-filter per (stream, date) batch.
	phase = time.Now()
	type loadSet struct {
		name string
		rows []load.Row
	}
	var sets []loadSet
	for _, b := range batches {
		tr, ok := p.transformers[b.Stream.Name]
		if !ok {
			p.log.Warn("no transformer for stream, skipping", zap.String("stream", b.Stream.Name))
			continue
		}
		rows, tstats := tr.Transform(b)
		p.stats.RecordsProcessed += tstats.TotalRecords
		p.stats.RecordsInvalid += tstats.InvalidRecords
		recordsProcessedTotal.WithLabelValues(b.Stream.Name).Add(float64(tstats.TotalRecords))
		recordsInvalidTotal.WithLabelValues(b.Stream.Name).Add(float64(tstats.InvalidRecords))

		if p.opts.DeltaMode {
			wm := p.watermarks[b.Stream.Name]
			rows = transform.FilterNew(rows, wm.ts, wm.has)
		}
		if len(rows) > 0 {
			sets = append(sets, loadSet{name: b.Stream.Name, rows: rows})
		}
	}
	p.stats.TransformationTime = time.Since(phase)

	if len(sets) == 0 {
		p.log.Info("no new records after delta check")
		return nil
	}

	// Load each transformed set in submission order. A failure aborts
	// the run; already-committed sets stay persisted.
	phase = time.Now()
	for _, s := range sets {
		l, ok := p.loaders[s.name]
		if !ok {
			p.log.Warn("no loader for stream, skipping", zap.String("stream", s.name))
			continue
		}
		if err := l.Load(ctx, s.rows, p.opts.UpsertMode); err != nil {
			p.stats.LoadingTime = time.Since(phase)
			return fmt.Errorf("loading failed for %s: %w", s.name, err)
		}
		l.Verify(ctx, int64(len(s.rows)))
		p.stats.RecordsLoaded += len(s.rows)
		recordsLoadedTotal.WithLabelValues(s.name).Add(float64(len(s.rows)))
	}
	p.stats.LoadingTime = time.Since(phase)

	return nil
}

func parseDate(s string) (time.Time, error) {
	// tolerate trailing time components in the configured value
	s = strings.Fields(strings.TrimSpace(s))[0]
	return time.Parse("2006-01-02", s)
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
