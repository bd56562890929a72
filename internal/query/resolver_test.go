package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSource(t *testing.T) {
	base := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		span time.Duration
		want string
	}{
		{"90 seconds uses raw samples", 90 * time.Second, "heart_rate_intraday"},
		{"just under 2 minutes uses raw", 2*time.Minute - time.Second, "heart_rate_intraday"},
		{"exactly 2 minutes moves to minute rollup", 2 * time.Minute, "heart_rate_intraday_1m"},
		{"exactly 2 hours stays on minute rollup", 2 * time.Hour, "heart_rate_intraday_1m"},
		{"just over 2 hours uses hour rollup", 2*time.Hour + time.Second, "heart_rate_intraday_1h"},
		{"3 days uses hour rollup", 3 * 24 * time.Hour, "heart_rate_intraday_1h"},
		{"exactly 7 days stays on hour rollup", 7 * 24 * time.Hour, "heart_rate_intraday_1h"},
		{"over 7 days uses day rollup", 7*24*time.Hour + time.Second, "heart_rate_intraday_1d"},
		{"90 days uses day rollup", 90 * 24 * time.Hour, "heart_rate_intraday_1d"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := ResolveSource(base, base.Add(tc.span))
			assert.Equal(t, tc.want, res.Table)
		})
	}
}

func TestResolveSourceColumns(t *testing.T) {
	base := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	raw := ResolveSource(base, base.Add(time.Minute))
	assert.Equal(t, "timestamp", raw.TimeColumn)
	assert.Equal(t, "value", raw.ValueColumn)
	assert.Equal(t, "raw", raw.Interval)

	hourly := ResolveSource(base, base.Add(3*24*time.Hour))
	assert.Equal(t, "hour", hourly.TimeColumn)
	assert.Equal(t, "avg_heart_rate", hourly.ValueColumn)
	assert.Equal(t, "1h", hourly.Interval)
}

func TestValidInterval(t *testing.T) {
	for _, tok := range []string{"1s", "1m", "1h", "1d"} {
		assert.True(t, ValidInterval(tok), tok)
	}
	for _, tok := range []string{"", "raw", "5m", "1w", "1 day"} {
		assert.False(t, ValidInterval(tok), tok)
	}
}

func TestBuildQueryNative(t *testing.T) {
	base := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	res := ResolveSource(base, base.Add(time.Hour)) // minute rollup

	sql, err := BuildQuery(res, "")
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM heart_rate_intraday_1m")
	assert.Contains(t, sql, "ROUND(avg_heart_rate::numeric, 2)")
	assert.Contains(t, sql, "ORDER BY minute")
	assert.NotContains(t, sql, "time_bucket")
	assert.NotContains(t, sql, "GROUP BY")
}

func TestBuildQueryRebuckets(t *testing.T) {
	base := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	res := ResolveSource(base, base.Add(time.Hour)) // minute rollup

	// day-sized output over a minute-granularity source re-buckets by
	// averaging the already-aggregated values
	sql, err := BuildQuery(res, "1d")
	require.NoError(t, err)
	assert.Contains(t, sql, "time_bucket('1 day', minute)")
	assert.Contains(t, sql, "AVG(avg_heart_rate)")
	assert.Contains(t, sql, "GROUP BY time_bucket('1 day', minute), entity_id")
}

func TestBuildQueryInvalidInterval(t *testing.T) {
	base := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	res := ResolveSource(base, base.Add(time.Hour))

	_, err := BuildQuery(res, "5m")
	assert.ErrorIs(t, err, ErrInvalidInterval)
}
