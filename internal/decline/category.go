package decline

import "MarketDecline/internal/model"

// Bucket edges in percent. Each bucket includes its lower edge and excludes
// its upper edge; the outermost buckets are unbounded.
var edges = [...]float64{-30, -20, -10, -5, 0, 10}

// Categorize maps a decline percentage to its bucket.
func Categorize(pct float64) model.Category {
	for i, e := range edges {
		if pct < e {
			return model.Category(i)
		}
	}
	return model.CategorySurge
}

// Distribution counts records per bucket. Every bucket is present, in
// display order, even when empty.
func Distribution(records []model.DeclineRecord) []model.CategoryCount {
	counts := make([]int, len(model.Categories))
	for _, r := range records {
		counts[Categorize(r.MaxDeclinePct)]++
	}
	out := make([]model.CategoryCount, len(model.Categories))
	for i, c := range model.Categories {
		out[i] = model.CategoryCount{Category: c, Label: c.String(), Count: counts[i]}
	}
	return out
}
