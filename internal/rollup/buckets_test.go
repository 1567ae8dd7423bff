package rollup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	assert.Equal(t, Range24h, ParseRange("24h"))
	assert.Equal(t, Range7d, ParseRange("7d"))
	assert.Equal(t, Range30d, ParseRange("30d"))
	assert.Equal(t, Range7d, ParseRange(""))
	assert.Equal(t, Range7d, ParseRange("90d"))
	assert.Equal(t, Range7d, ParseRange("garbage"))
}

func TestHourBuckets(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)

	buckets := TimeBuckets(now, Range24h, time.UTC, []time.Time{
		now.Add(-30 * time.Minute),        // current bucket
		now.Add(-90 * time.Minute),        // previous bucket
		now.Add(-24*time.Hour + time.Second), // oldest bucket
		now.Add(-25 * time.Hour),          // outside window
	})

	require.Len(t, buckets, 24)
	assert.Equal(t, "15h", buckets[23].Label)
	assert.Equal(t, "14h", buckets[22].Label)
	assert.Equal(t, "16h", buckets[0].Label)

	assert.Equal(t, 1, buckets[23].Clicks)
	assert.Equal(t, 1, buckets[22].Clicks)
	assert.Equal(t, 1, buckets[0].Clicks)
}

func TestHourBucketsHalfOpen(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	// A click exactly at now falls outside every bucket; one exactly at
	// the window start lands in the first.
	buckets := TimeBuckets(now, Range24h, time.UTC, []time.Time{
		now,
		now.Add(-24 * time.Hour),
	})

	total := 0
	for _, b := range buckets {
		total += b.Clicks
	}
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, buckets[0].Clicks)
}

func TestDayBuckets(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)

	buckets := TimeBuckets(now, Range7d, time.UTC, []time.Time{
		now,
		now.AddDate(0, 0, -3),
		now.AddDate(0, 0, -6),
		now.AddDate(0, 0, -7), // before the window
	})

	require.Len(t, buckets, 7)
	assert.Equal(t, "04/03", buckets[0].Label)
	assert.Equal(t, "10/03", buckets[6].Label)

	assert.Equal(t, 1, buckets[6].Clicks)
	assert.Equal(t, 1, buckets[3].Clicks)
	assert.Equal(t, 1, buckets[0].Clicks)
}

func TestDayBuckets30d(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	buckets := TimeBuckets(now, Range30d, time.UTC, nil)

	require.Len(t, buckets, 30)
	assert.Equal(t, "09/02", buckets[0].Label)
	assert.Equal(t, "10/03", buckets[29].Label)
}

func TestDayBucketsTimezoneBoundary(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	now := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
	// 23:30 UTC on March 9 is already 00:30 March 10 in Paris.
	click := time.Date(2025, 3, 9, 23, 30, 0, 0, time.UTC)

	inParis := TimeBuckets(now, Range7d, paris, []time.Time{click})
	assert.Equal(t, "10/03", inParis[6].Label)
	assert.Equal(t, 1, inParis[6].Clicks)

	inUTC := TimeBuckets(now, Range7d, time.UTC, []time.Time{click})
	assert.Equal(t, 1, inUTC[5].Clicks)
	assert.Equal(t, 0, inUTC[6].Clicks)
}

func TestWindowStart(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)

	assert.Equal(t, now.Add(-24*time.Hour), Range24h.WindowStart(now, time.UTC))

	start7 := Range7d.WindowStart(now, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), start7)

	start30 := Range30d.WindowStart(now, time.UTC)
	assert.Equal(t, time.Date(2025, 2, 9, 0, 0, 0, 0, time.UTC), start30)
}

// Bucket counts must sum to the number of clicks inside the window, so
// the chart total matches the headline figure computed from the same
// gateway filter.
func TestBucketSumMatchesWindowFilter(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)

	var clicks []time.Time
	for i := 0; i < 50; i++ {
		clicks = append(clicks, now.Add(-time.Duration(i*3)*time.Hour))
	}

	for _, rng := range []Range{Range24h, Range7d, Range30d} {
		since := rng.WindowStart(now, time.UTC)

		inWindow := 0
		var filtered []time.Time
		for _, c := range clicks {
			if !c.Before(since) && c.Before(now) {
				inWindow++
				filtered = append(filtered, c)
			}
		}

		total := 0
		for _, b := range TimeBuckets(now, rng, time.UTC, filtered) {
			total += b.Clicks
		}
		assert.Equal(t, inWindow, total, "range %s", rng)
	}
}
