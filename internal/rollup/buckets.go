package rollup

import (
	"fmt"
	"time"
)

// Range selects the reporting window for windowed analytics.
type Range string

const (
	Range24h Range = "24h"
	Range7d  Range = "7d"
	Range30d Range = "30d"
)

// ParseRange maps a query-string value onto a Range, defaulting to 7d.
func ParseRange(s string) Range {
	switch Range(s) {
	case Range24h, Range7d, Range30d:
		return Range(s)
	default:
		return Range7d
	}
}

// days returns the day count for day-bucketed ranges, 0 for 24h.
func (r Range) days() int {
	switch r {
	case Range7d:
		return 7
	case Range30d:
		return 30
	default:
		return 0
	}
}

// WindowStart returns the lower bound of the reporting window: 24 hours
// before now for the hourly range, local midnight days-1 days ago for
// the daily ranges. The gateway click filter and the bucketizer must
// share this bound so that bucket counts sum to the window total.
func (r Range) WindowStart(now time.Time, loc *time.Location) time.Time {
	if r == Range24h {
		return now.Add(-24 * time.Hour)
	}
	return startOfDay(now.In(loc).AddDate(0, 0, -(r.days() - 1)))
}

// TimeBucket is one fixed-width sub-interval of the reporting window.
type TimeBucket struct {
	Label  string `json:"label"`
	Clicks int    `json:"clicks"`
}

// TimeBuckets partitions the window ending at now into contiguous
// half-open buckets and counts how many timestamps fall in each. The
// 24h range yields 24 one-hour buckets labeled by their end hour
// ("09h"); 7d and 30d yield one bucket per calendar day in loc,
// labeled by the day's start ("DD/MM"). A timestamp belongs to the
// bucket where start <= t < end.
func TimeBuckets(now time.Time, rng Range, loc *time.Location, times []time.Time) []TimeBucket {
	if rng == Range24h {
		return hourBuckets(now, loc, times)
	}
	return dayBuckets(now, rng.days(), loc, times)
}

func hourBuckets(now time.Time, loc *time.Location, times []time.Time) []TimeBucket {
	buckets := make([]TimeBucket, 0, 24)
	for i := 0; i < 24; i++ {
		end := now.Add(-time.Duration(23-i) * time.Hour)
		start := end.Add(-time.Hour)
		buckets = append(buckets, TimeBucket{
			Label:  fmt.Sprintf("%02dh", end.In(loc).Hour()),
			Clicks: countBetween(times, start, end),
		})
	}
	return buckets
}

func dayBuckets(now time.Time, days int, loc *time.Location, times []time.Time) []TimeBucket {
	buckets := make([]TimeBucket, 0, days)
	for i := 0; i < days; i++ {
		start := startOfDay(now.In(loc).AddDate(0, 0, -(days - 1 - i)))
		end := start.AddDate(0, 0, 1)
		buckets = append(buckets, TimeBucket{
			Label:  start.Format("02/01"),
			Clicks: countBetween(times, start, end),
		})
	}
	return buckets
}

func countBetween(times []time.Time, start, end time.Time) int {
	n := 0
	for _, t := range times {
		if !t.Before(start) && t.Before(end) {
			n++
		}
	}
	return n
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
