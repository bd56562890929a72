package load

import (
	"context"
	"time"

	"pulseline/internal/stream"
)

// Row is one canonical record ready for persistence: exactly the
// stream's persisted columns, timestamp combined, non-null constraints
// already satisfied.
type Row interface {
	ObservedAt() time.Time
}

// Stats counts the outcome of one load call.
type Stats struct {
	TotalRecords     int
	InsertedRecords  int
	FailedRecords    int
	BatchesProcessed int
	BatchesFailed    int
}

// Loader persists canonical rows for one stream in bounded transactional
// batches and exposes the stream's watermark.
type Loader interface {
	Stream() stream.Stream
	// Setup verifies the backing store is reachable and schema-ready.
	Setup(ctx context.Context) error
	// LastTimestamp re-reads the stream watermark from the store of
	// record; the bool is false when the stream has no data.
	LastTimestamp(ctx context.Context) (time.Time, bool, error)
	// Load writes rows in batches. A batch failure rolls that batch
	// back and aborts the remaining batches of this call; previously
	// committed batches stay persisted.
	Load(ctx context.Context, rows []Row, upsert bool) error
	// Verify re-reads the row count and checks it is at least
	// expectedMin. Best-effort monotonic sanity check: concurrent
	// writers may inflate the count, so mismatches warn, never fail.
	Verify(ctx context.Context, expectedMin int64) bool
	Stats() Stats
}
