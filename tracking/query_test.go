package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFillSeriesGapFilling(t *testing.T) {
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	byDay := map[string]SeriesPoint{
		"2026-02-01": {Date: "2026-02-01", TotalViews: 5, UniqueViews: 3},
		"2026-02-03": {Date: "2026-02-03", TotalViews: 2, UniqueViews: 2},
	}

	series := fillSeries(from, 4, byDay)
	assert.Len(t, series, 4)

	assert.Equal(t, SeriesPoint{Date: "2026-02-01", TotalViews: 5, UniqueViews: 3}, series[0])
	// Day without traffic appears as an explicit zero row.
	assert.Equal(t, SeriesPoint{Date: "2026-02-02"}, series[1])
	assert.Equal(t, SeriesPoint{Date: "2026-02-03", TotalViews: 2, UniqueViews: 2}, series[2])
	assert.Equal(t, SeriesPoint{Date: "2026-02-04"}, series[3])
}

func TestFillSeriesAllQuiet(t *testing.T) {
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	series := fillSeries(from, 3, nil)

	assert.Len(t, series, 3)
	for i, p := range series {
		assert.Equal(t, from.AddDate(0, 0, i).Format("2006-01-02"), p.Date)
		assert.Zero(t, p.TotalViews)
		assert.Zero(t, p.UniqueViews)
	}
}

func TestFillSeriesCrossesMonthBoundary(t *testing.T) {
	from := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	series := fillSeries(from, 2, nil)
	assert.Equal(t, "2026-01-31", series[0].Date)
	assert.Equal(t, "2026-02-01", series[1].Date)
}

func TestIsStale(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	period := 24 * time.Hour

	// Never rolled up means stale.
	assert.True(t, isStale(nil, period, now))

	fresh := now.Add(-3 * time.Hour)
	assert.False(t, isStale(&fresh, period, now))

	// Exactly two cadences is still in the grace window.
	edge := now.Add(-2 * period)
	assert.False(t, isStale(&edge, period, now))

	old := now.Add(-2*period - time.Minute)
	assert.True(t, isStale(&old, period, now))
}

func TestStartOfDayUTC(t *testing.T) {
	in := time.Date(2026, 3, 10, 23, 59, 59, 0, time.FixedZone("UTC-8", -8*3600))
	out := startOfDayUTC(in)
	// 23:59 UTC-8 is already the next UTC day.
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), out)
}

func TestSummaryCacheKey(t *testing.T) {
	assert.Equal(t, "analytics:summary:17", SummaryCacheKey(17))
}
