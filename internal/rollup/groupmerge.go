// Package rollup computes the derived metrics behind the dashboards:
// tracking stats, windowed analytics, pipeline conversion, and the
// 7-day engagement panel. Everything here is a pure function over
// already-fetched snapshots; the only I/O happens at the storage
// gateway boundary inside Service.
package rollup

// Grouped holds merged groups keyed by string, preserving first-seen
// insertion order of keys. That order is the tie-break order for any
// later TopN selection.
type Grouped[V any] struct {
	keys   []string
	values map[string]V
}

// GroupMerge folds items into groups. key derives the group key for an
// item; callers that can produce an empty key must map it to a
// per-item fallback (e.g. a link's short code) before calling, so that
// keyless items land in singleton groups instead of merging together.
// seed builds the group value from its first item, combine folds every
// subsequent item into the existing value.
func GroupMerge[T, V any](items []T, key func(T) string, seed func(T) V, combine func(V, T) V) *Grouped[V] {
	g := &Grouped[V]{values: make(map[string]V, len(items))}
	for _, item := range items {
		k := key(item)
		if existing, ok := g.values[k]; ok {
			g.values[k] = combine(existing, item)
		} else {
			g.keys = append(g.keys, k)
			g.values[k] = seed(item)
		}
	}
	return g
}

// Len returns the number of groups.
func (g *Grouped[V]) Len() int {
	return len(g.keys)
}

// Keys returns group keys in first-seen order.
func (g *Grouped[V]) Keys() []string {
	return g.keys
}

// Get returns the merged value for a key.
func (g *Grouped[V]) Get(key string) (V, bool) {
	v, ok := g.values[key]
	return v, ok
}

// Values returns merged values in first-seen key order.
func (g *Grouped[V]) Values() []V {
	out := make([]V, 0, len(g.keys))
	for _, k := range g.keys {
		out = append(out, g.values[k])
	}
	return out
}
