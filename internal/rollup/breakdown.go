package rollup

import "math"

// LabelCount is one row of a breakdown: a label and how many records
// carried it.
type LabelCount struct {
	Label string
	Count int
}

// CountBy counts occurrences of label(item) across items, in first-seen
// label order. Items for which label reports ok=false are excluded from
// the count entirely. Label-default policy is the caller's job: the
// device breakdown maps a missing device type to "Desktop" before
// calling, while the country breakdown drops records with no country.
func CountBy[T any](items []T, label func(T) (string, bool)) []LabelCount {
	index := make(map[string]int, len(items))
	var out []LabelCount
	for _, item := range items {
		l, ok := label(item)
		if !ok {
			continue
		}
		if i, seen := index[l]; seen {
			out[i].Count++
			continue
		}
		index[l] = len(out)
		out = append(out, LabelCount{Label: l, Count: 1})
	}
	return out
}

// Percent converts a count to a rounded percentage of total. Every row
// of one breakdown divides by the same total, so rounding error across
// rows is expected and totals are not renormalized to 100. A zero total
// yields 0 without dividing.
func Percent(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}
