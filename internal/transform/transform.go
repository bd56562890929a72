package transform

import (
	"time"

	"pulseline/internal/extract"
	"pulseline/internal/load"
	"pulseline/internal/stream"
)

// Stats counts one transform pass. Invalid records are rejected and
// counted, never raised.
type Stats struct {
	TotalRecords   int
	ValidRecords   int
	InvalidRecords int
}

// Transformer canonicalizes one stream's candidates into persistable
// rows. A rejection (missing or unparsable required field) drops the
// record and increments the invalid counter.
type Transformer interface {
	Stream() stream.Stream
	Transform(batch extract.Batch) ([]load.Row, Stats)
}

// FilterNew keeps only rows strictly newer than the stream watermark.
// When no watermark exists everything passes. Both operands compare in
// UTC, and the filter is idempotent: filtering an already-filtered set
// against the same watermark returns the same set.
func FilterNew(rows []load.Row, watermark time.Time, haveWatermark bool) []load.Row {
	if !haveWatermark {
		return rows
	}
	wm := watermark.UTC()
	out := make([]load.Row, 0, len(rows))
	for _, r := range rows {
		if r.ObservedAt().UTC().After(wm) {
			out = append(out, r)
		}
	}
	return out
}
