package transform

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pulseline/internal/db"
	"pulseline/internal/extract"
	"pulseline/internal/load"
	"pulseline/internal/stream"
)

var testDate = time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

func intradayBatch(records ...extract.Candidate) extract.Batch {
	return extract.Batch{Stream: stream.Intraday, Records: records}
}

func TestIntradayTransform(t *testing.T) {
	tr := NewIntradayTransformer(zap.NewNop())

	rows, stats := tr.Transform(intradayBatch(
		extract.IntradayCandidate{Date: testDate, TimeOfDay: "08:30:15", Value: 72.5, EntityID: "user1"},
	))
	require.Len(t, rows, 1)
	assert.Equal(t, Stats{TotalRecords: 1, ValidRecords: 1}, stats)

	p := rows[0].(db.HeartRatePoint)
	assert.Equal(t, time.Date(2025, 3, 10, 8, 30, 15, 0, time.UTC), p.Timestamp)
	assert.Equal(t, 72.5, p.Value)
	assert.Equal(t, "user1", p.EntityID)
}

func TestIntradayTransformRejections(t *testing.T) {
	tr := NewIntradayTransformer(zap.NewNop())

	rows, stats := tr.Transform(intradayBatch(
		extract.IntradayCandidate{Date: testDate, TimeOfDay: "", Value: 70.0, EntityID: "u"},
		extract.IntradayCandidate{Date: testDate, TimeOfDay: "25:99:99", Value: 70.0, EntityID: "u"},
		extract.IntradayCandidate{Date: testDate, TimeOfDay: "09:00:00", Value: nil, EntityID: "u"},
		"not a candidate at all",
	))
	assert.Empty(t, rows)
	assert.Equal(t, Stats{TotalRecords: 4, InvalidRecords: 4}, stats)
}

func TestIntradayTransformCoercion(t *testing.T) {
	tr := NewIntradayTransformer(zap.NewNop())

	rows, stats := tr.Transform(intradayBatch(
		extract.IntradayCandidate{Date: testDate, TimeOfDay: "10:00:00", Value: "81.5", EntityID: "u"},
		extract.IntradayCandidate{Date: testDate, TimeOfDay: "10:00:15", Value: "garbage", EntityID: "u"},
	))
	require.Len(t, rows, 2)
	assert.Equal(t, 2, stats.ValidRecords)

	assert.Equal(t, 81.5, rows[0].(db.HeartRatePoint).Value)
	// present but uncoercible values fall back to 0.0 instead of rejecting
	assert.Equal(t, 0.0, rows[1].(db.HeartRatePoint).Value)
}

func TestIntradayTransformDefaultEntity(t *testing.T) {
	tr := NewIntradayTransformer(zap.NewNop())

	rows, _ := tr.Transform(intradayBatch(
		extract.IntradayCandidate{Date: testDate, TimeOfDay: "11:00:00", Value: 64.0},
	))
	require.Len(t, rows, 1)
	assert.Equal(t, "default_user", rows[0].(db.HeartRatePoint).EntityID)
}

func TestSummaryTransform(t *testing.T) {
	tr := NewSummaryTransformer(zap.NewNop())
	zones := json.RawMessage(`{"peak":{"min":100,"max":120,"minutes":12}}`)

	rows, stats := tr.Transform(extract.Batch{Stream: stream.Summary, Records: []extract.Candidate{
		extract.SummaryCandidate{Date: testDate, RestingHeartRate: 64.0, Zones: zones, EntityID: "user1"},
	}})
	require.Len(t, rows, 1)
	assert.Equal(t, Stats{TotalRecords: 1, ValidRecords: 1}, stats)

	s := rows[0].(db.HeartRateSummary)
	assert.Equal(t, testDate, s.Timestamp)
	assert.Equal(t, "user1", s.EntityID)
	require.NotNil(t, s.RestingHeartRate)
	assert.Equal(t, 64, *s.RestingHeartRate)
	assert.JSONEq(t, string(zones), string(s.HeartRateZones))
	assert.Nil(t, s.CustomHeartRateZones)
}

func TestSummaryTransformNullableFields(t *testing.T) {
	tr := NewSummaryTransformer(zap.NewNop())

	rows, _ := tr.Transform(extract.Batch{Stream: stream.Summary, Records: []extract.Candidate{
		extract.SummaryCandidate{Date: testDate, RestingHeartRate: nil, EntityID: "u"},
		extract.SummaryCandidate{Date: testDate, RestingHeartRate: "??", Zones: json.RawMessage("{broken"), EntityID: "u"},
	}})
	require.Len(t, rows, 2)

	assert.Nil(t, rows[0].(db.HeartRateSummary).RestingHeartRate)

	second := rows[1].(db.HeartRateSummary)
	assert.Nil(t, second.RestingHeartRate, "uncoercible resting rate stores null")
	assert.Nil(t, second.HeartRateZones, "invalid zone JSON stores null")
}

func TestSummaryTransformRejections(t *testing.T) {
	tr := NewSummaryTransformer(zap.NewNop())

	rows, stats := tr.Transform(extract.Batch{Stream: stream.Summary, Records: []extract.Candidate{
		extract.SummaryCandidate{RestingHeartRate: 60, EntityID: "u"}, // zero date
		42, // wrong candidate type
	}})
	assert.Empty(t, rows)
	assert.Equal(t, Stats{TotalRecords: 2, InvalidRecords: 2}, stats)
}

func TestFilterNew(t *testing.T) {
	mk := func(ts time.Time) load.Row { return db.HeartRatePoint{Timestamp: ts, EntityID: "u"} }
	wm := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	rows := []load.Row{
		mk(wm.Add(-time.Minute)),
		mk(wm), // equal to the watermark: not new
		mk(wm.Add(time.Second)),
		mk(wm.Add(time.Hour)),
	}

	t.Run("no watermark passes everything", func(t *testing.T) {
		assert.Len(t, FilterNew(rows, time.Time{}, false), 4)
	})

	t.Run("strictly newer only", func(t *testing.T) {
		got := FilterNew(rows, wm, true)
		require.Len(t, got, 2)
		assert.Equal(t, wm.Add(time.Second), got[0].ObservedAt())
	})

	t.Run("compares in UTC", func(t *testing.T) {
		east := time.FixedZone("UTC+3", 3*3600)
		got := FilterNew(rows, wm.In(east), true)
		assert.Len(t, got, 2)
	})

	t.Run("idempotent", func(t *testing.T) {
		once := FilterNew(rows, wm, true)
		twice := FilterNew(once, wm, true)
		assert.Equal(t, once, twice)
	})
}
