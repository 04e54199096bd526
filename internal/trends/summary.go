// Package trends collects keyword search trends from Naver blog search and
// Google Trends and condenses them into summaries and reports.
package trends

import (
	"math"

	"MarketDecline/internal/model"
)

// trendWindow is the number of days compared at each end of a series.
const trendWindow = 7

// Summarize condenses a daily count series. The trend compares the mean of
// the first and last seven days, or of the two halves when the series is
// shorter than seven days.
func Summarize(daily []model.DailyCount) model.TrendSummary {
	if len(daily) == 0 {
		return model.TrendSummary{TrendDirection: model.TrendStable}
	}

	counts := make([]int, len(daily))
	total := 0
	maxC, minC := daily[0].Count, daily[0].Count
	for i, d := range daily {
		counts[i] = d.Count
		total += d.Count
		if d.Count > maxC {
			maxC = d.Count
		}
		if d.Count < minC {
			minC = d.Count
		}
	}

	var first, last []int
	if len(counts) >= trendWindow {
		first = counts[:trendWindow]
		last = counts[len(counts)-trendWindow:]
	} else {
		first = counts[:len(counts)/2]
		last = counts[len(counts)/2:]
	}
	firstAvg := meanInts(first)
	lastAvg := meanInts(last)

	pct := 0.0
	if firstAvg > 0 {
		pct = (lastAvg - firstAvg) / firstAvg * 100
	}
	pct = round2(pct)

	dir := model.TrendStable
	switch {
	case pct > 0:
		dir = model.TrendIncreasing
	case pct < 0:
		dir = model.TrendDecreasing
	}

	return model.TrendSummary{
		TotalCount:      total,
		AverageCount:    round2(float64(total) / float64(len(counts))),
		MaxCount:        maxC,
		MinCount:        minC,
		TrendPercentage: pct,
		TrendDirection:  dir,
	}
}

func meanInts(v []int) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0
	for _, x := range v {
		sum += x
	}
	return float64(sum) / float64(len(v))
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Correlation computes the Pearson correlation of two equally long series.
// Series that are too short or constant correlate at 0.
func Correlation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	mx, my := mean(x), mean(y)
	var sxy, sxx, syy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	r := sxy / math.Sqrt(sxx*syy)
	if math.IsNaN(r) {
		return 0
	}
	return r
}
