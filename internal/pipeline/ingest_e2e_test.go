package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pulseline/internal/db"
	"pulseline/internal/extract"
	"pulseline/internal/load"
	"pulseline/internal/source"
	"pulseline/internal/stream"
)

// End-to-end over a real replay cache: three crafted days flow through
// extraction, transformation, and a captive loader with perturbation
// disabled, so every persisted value must match the cache bit for bit.
func TestIngestEndToEnd(t *testing.T) {
	dir := t.TempDir()
	days := []source.DayRecord{
		craftedDay([]source.Sample{{Time: "00:00:00", Value: 61.0}, {Time: "12:00:00", Value: 95.5}}),
		craftedDay([]source.Sample{{Time: "06:30:00", Value: 70.25}}),
		craftedDay([]source.Sample{{Time: "23:59:45", Value: 58.0}, {Time: "08:15:30", Value: 132.75}}),
	}
	data, err := json.Marshal(days)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, stream.Intraday.Name+"_data.json"), data, 0o644))

	cache := source.NewReplayCache(dir, stream.Intraday.Name, zap.NewNop())
	ex := extract.NewIntradayExtractor(cache, "user1", source.JitterValues(0), zap.NewNop())
	l := &fakeLoader{strm: stream.Intraday}

	p := newPipeline([]extract.Extractor{ex}, []load.Loader{l},
		Options{StartDate: "2024-01-01", EndDate: "2024-01-03", UpsertMode: true})
	require.NoError(t, p.Run(context.Background()))
	require.Equal(t, StateCompleted, p.State())

	var got []db.HeartRatePoint
	for _, rows := range l.loaded {
		for _, r := range rows {
			got = append(got, r.(db.HeartRatePoint))
		}
	}
	want := []db.HeartRatePoint{
		{Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), EntityID: "user1", Value: 61.0},
		{Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), EntityID: "user1", Value: 95.5},
		{Timestamp: time.Date(2024, 1, 2, 6, 30, 0, 0, time.UTC), EntityID: "user1", Value: 70.25},
		{Timestamp: time.Date(2024, 1, 3, 23, 59, 45, 0, time.UTC), EntityID: "user1", Value: 58.0},
		{Timestamp: time.Date(2024, 1, 3, 8, 15, 30, 0, time.UTC), EntityID: "user1", Value: 132.75},
	}
	assert.Equal(t, want, got)
	assert.Equal(t, 5, p.Stats().RecordsLoaded)
	assert.Zero(t, p.Stats().RecordsInvalid)
}

func craftedDay(samples []source.Sample) source.DayRecord {
	return source.DayRecord{HeartRateDay: []source.HeartRateDay{{
		Intraday: source.IntradaySet{Dataset: samples, DatasetInterval: 15, DatasetType: "second"},
	}}}
}
