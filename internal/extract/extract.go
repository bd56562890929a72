package extract

import (
	"time"

	"pulseline/internal/stream"
)

// Candidate is a typed record still in source vocabulary (separate date
// and time-of-day fields, loosely typed value). Each transformer
// asserts its own concrete candidate type; anything else counts as
// invalid there.
type Candidate any

// Batch pairs a stream with the candidates extracted for one date.
type Batch struct {
	Stream  stream.Stream
	Records []Candidate
}

// Extractor turns one calendar date into candidate records for its
// stream. Extraction failures are recovered locally: the extractor
// logs and returns an empty batch, never failing the run.
type Extractor interface {
	Stream() stream.Stream
	Extract(date time.Time) Batch
}
