package rollup

import "sort"

// TopN sorts items descending by count and truncates to limit. The sort
// is stable: exact ties keep the order they arrived in, which for
// GroupMerge and CountBy output is first-seen insertion order. A limit
// of 0 or less means no truncation. The input slice is not modified.
func TopN[T any](items []T, count func(T) int, limit int) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return count(out[i]) > count(out[j])
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
