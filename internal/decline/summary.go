package decline

import (
	"math"
	"sort"

	"MarketDecline/internal/model"
)

// Summarize reduces records to descriptive statistics over MaxDeclinePct,
// the bucket distribution and a per-market breakdown.
func Summarize(records []model.DeclineRecord) model.SummaryStats {
	s := model.SummaryStats{
		Stats:        describe(values(records)),
		Distribution: Distribution(records),
	}

	byMarket := make(map[model.Market][]float64)
	for _, r := range records {
		if r.Market == "" {
			continue
		}
		byMarket[r.Market] = append(byMarket[r.Market], r.MaxDeclinePct)
	}
	if len(byMarket) > 0 {
		s.ByMarket = make(map[model.Market]model.Stats, len(byMarket))
		for m, v := range byMarket {
			s.ByMarket[m] = describe(v)
		}
	}
	return s
}

// RankWorst returns up to n records ordered from the largest drop down.
// Ties keep input order. n <= 0 returns every record.
func RankWorst(records []model.DeclineRecord, n int) []model.DeclineRecord {
	out := make([]model.DeclineRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MaxDeclinePct < out[j].MaxDeclinePct
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// FilterMarket returns the records tagged with market m.
func FilterMarket(records []model.DeclineRecord, m model.Market) []model.DeclineRecord {
	var out []model.DeclineRecord
	for _, r := range records {
		if r.Market == m {
			out = append(out, r)
		}
	}
	return out
}

// Bin is one histogram bar covering [Lower, Upper).
type Bin struct {
	Lower float64
	Upper float64
	Count int
}

// Histogram splits the observed range of values into equal-width bins.
// The last bin also includes its upper edge.
func Histogram(values []float64, bins int) []Bin {
	if len(values) == 0 || bins <= 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		if i < 0 {
			i = 0
		}
		out[i].Count++
	}
	return out
}

// BoxStats returns min, first quartile, median, third quartile and max,
// using linear interpolation between closest ranks.
func BoxStats(values []float64) [5]float64 {
	if len(values) == 0 {
		return [5]float64{}
	}
	sorted := sortedCopy(values)
	return [5]float64{
		sorted[0],
		quantile(sorted, 0.25),
		quantile(sorted, 0.5),
		quantile(sorted, 0.75),
		sorted[len(sorted)-1],
	}
}

// Values extracts MaxDeclinePct from every record.
func Values(records []model.DeclineRecord) []float64 { return values(records) }

func values(records []model.DeclineRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.MaxDeclinePct
	}
	return out
}

func describe(data []float64) model.Stats {
	n := len(data)
	if n == 0 {
		return model.Stats{}
	}
	sorted := sortedCopy(data)

	sum := 0.0
	for _, v := range data {
		sum += v
	}
	mean := sum / float64(n)

	// Sample standard deviation; a single observation has none.
	std := 0.0
	if n > 1 {
		ss := 0.0
		for _, v := range data {
			ss += (v - mean) * (v - mean)
		}
		std = math.Sqrt(ss / float64(n-1))
	}

	return model.Stats{
		Count:  n,
		Mean:   mean,
		Median: quantile(sorted, 0.5),
		Std:    std,
		Min:    sorted[0],
		Max:    sorted[n-1],
	}
}

func sortedCopy(data []float64) []float64 {
	out := make([]float64, len(data))
	copy(out, data)
	sort.Float64s(out)
	return out
}

// quantile expects sorted input.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
