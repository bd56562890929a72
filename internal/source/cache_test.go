package source

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeCache(t *testing.T, dir, name string, days []DayRecord) {
	t.Helper()
	data, err := json.Marshal(days)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+"_data.json"), data, 0o644))
}

func oneDay(dateTime string, resting int, samples []Sample) DayRecord {
	return DayRecord{HeartRateDay: []HeartRateDay{{
		ActivitiesHeart: []ActivitiesHeart{{
			DateTime: dateTime,
			Value:    SummaryValue{RestingHeartRate: resting},
		}},
		Intraday: IntradaySet{Dataset: samples, DatasetInterval: 15, DatasetType: "second"},
	}}}
}

func TestShift(t *testing.T) {
	c := NewReplayCache(t.TempDir(), "heart_rate_intraday", zap.NewNop())

	assert.Equal(t, 0, c.Shift(baseDate))
	assert.Equal(t, 1, c.Shift(baseDate.AddDate(0, 0, 1)))
	assert.Equal(t, 29, c.Shift(baseDate.AddDate(0, 0, 29)))

	// cyclic: same index every CycleLength days
	assert.Equal(t, 0, c.Shift(baseDate.AddDate(0, 0, CycleLength)))
	assert.Equal(t, 5, c.Shift(baseDate.AddDate(0, 0, CycleLength+5)))
	assert.Equal(t, c.Shift(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)),
		c.Shift(time.Date(2025, 6, 10, 23, 59, 59, 0, time.UTC)))

	// dates before the base date still map into [0, CycleLength)
	assert.Equal(t, CycleLength-1, c.Shift(baseDate.AddDate(0, 0, -1)))
}

func TestDayRecordFromWrittenCache(t *testing.T) {
	dir := t.TempDir()
	days := []DayRecord{
		oneDay("2024-01-01", 61, []Sample{{Time: "00:00:00", Value: 70.0}}),
		oneDay("2024-01-02", 62, []Sample{{Time: "00:00:15", Value: 71.0}}),
	}
	writeCache(t, dir, "heart_rate_intraday", days)

	c := NewReplayCache(dir, "heart_rate_intraday", zap.NewNop())

	rec, err := c.DayRecord(baseDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, rec.HeartRateDay, 1)
	assert.Equal(t, "2024-01-02", rec.HeartRateDay[0].ActivitiesHeart[0].DateTime)

	// index beyond what the file holds
	_, err = c.DayRecord(baseDate.AddDate(0, 0, 2))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDayRecordRegeneratesMissingCache(t *testing.T) {
	dir := t.TempDir()
	c := NewReplayCache(dir, "heart_rate_intraday", zap.NewNop())

	rec, err := c.DayRecord(baseDate)
	require.NoError(t, err)
	require.Len(t, rec.HeartRateDay, 1)
	assert.NotEmpty(t, rec.HeartRateDay[0].Intraday.Dataset)

	// the regenerated file is persisted and re-readable
	_, err = os.Stat(filepath.Join(dir, "heart_rate_intraday_data.json"))
	require.NoError(t, err)

	again := NewReplayCache(dir, "heart_rate_intraday", zap.NewNop())
	rec2, err := again.DayRecord(baseDate)
	require.NoError(t, err)
	assert.Equal(t, rec.HeartRateDay[0].ActivitiesHeart[0].Value.RestingHeartRate,
		rec2.HeartRateDay[0].ActivitiesHeart[0].Value.RestingHeartRate)
	assert.Equal(t, len(rec.HeartRateDay[0].Intraday.Dataset),
		len(rec2.HeartRateDay[0].Intraday.Dataset))
}

func TestDayRecordCorruptCache(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "heart_rate_intraday_data.json"), []byte("{nope"), 0o644))

	c := NewReplayCache(dir, "heart_rate_intraday", zap.NewNop())
	_, err := c.DayRecord(baseDate)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenerateDays(t *testing.T) {
	a := GenerateDays(7, 3600)
	b := GenerateDays(7, 3600)
	require.Len(t, a, CycleLength)
	assert.Equal(t, a, b, "same seed must produce identical output")

	other := GenerateDays(8, 3600)
	assert.NotEqual(t, a, other, "different seed must diverge")

	for _, day := range a {
		require.Len(t, day.HeartRateDay, 1)
		hrd := day.HeartRateDay[0]
		assert.Len(t, hrd.Intraday.Dataset, 24)
		for _, s := range hrd.Intraday.Dataset {
			v, ok := AsFloat(s.Value)
			require.True(t, ok)
			assert.GreaterOrEqual(t, v, 45.0)
			assert.LessOrEqual(t, v, 195.0)
		}
		resting, ok := AsFloat(hrd.ActivitiesHeart[0].Value.RestingHeartRate)
		require.True(t, ok)
		assert.GreaterOrEqual(t, resting, 60.0)
		assert.LessOrEqual(t, resting, 80.0)
	}
}

func TestSynthesizeSummary(t *testing.T) {
	a := SynthesizeSummary(3)
	b := SynthesizeSummary(3)
	assert.Equal(t, a.RestingHeartRate, b.RestingHeartRate)
	assert.JSONEq(t, string(a.HeartRateZones), string(b.HeartRateZones))

	resting, ok := AsFloat(a.RestingHeartRate)
	require.True(t, ok)
	assert.GreaterOrEqual(t, resting, 60.0)
	assert.LessOrEqual(t, resting, 80.0)
}
