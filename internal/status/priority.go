package status

import "sort"

// Prioritize returns a copy of items ordered by descending tier. Items that
// share a tier keep their input order; day counts are not used to break ties.
func Prioritize[T any](items []T, tierOf func(T) Tier) []T {
	type ranked struct {
		item T
		tier Tier
	}
	rs := make([]ranked, len(items))
	for i, it := range items {
		rs[i] = ranked{item: it, tier: tierOf(it)}
	}
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].tier > rs[j].tier })
	out := make([]T, len(rs))
	for i, r := range rs {
		out[i] = r.item
	}
	return out
}

// Counts tallies items per tier.
type Counts struct {
	Valid    int `json:"valid"`
	Warning  int `json:"warning"`
	Critical int `json:"critical"`
}

// Total is the number of counted items.
func (c Counts) Total() int { return c.Valid + c.Warning + c.Critical }

// Count tallies the tier of every item.
func Count[T any](items []T, tierOf func(T) Tier) Counts {
	var c Counts
	for _, it := range items {
		switch tierOf(it) {
		case TierValid:
			c.Valid++
		case TierWarning:
			c.Warning++
		case TierCritical:
			c.Critical++
		}
	}
	return c
}

// Summarize tallies classification results.
func Summarize(results []Result) Counts {
	return Count(results, func(r Result) Tier { return r.Tier })
}
