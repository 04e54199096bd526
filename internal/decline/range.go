// Package decline computes per-instrument drawdown figures and summarizes
// them into fixed buckets and descriptive statistics.
package decline

import (
	"errors"
	"math"

	"MarketDecline/internal/model"
)

var (
	// ErrInvalidWindow is returned when the window size is not positive.
	ErrInvalidWindow = errors.New("window size must be positive")
	// ErrInsufficientData is returned when fewer bars than the window exist.
	ErrInsufficientData = errors.New("insufficient price history")
	// ErrZeroPrice is returned when a ratio would divide by a zero price.
	ErrZeroPrice = errors.New("zero reference price")
	// ErrInconsistentRange is returned when the window low exceeds the high.
	ErrInconsistentRange = errors.New("window low above window high")
	// ErrNonFinite is returned when a price in the window is NaN or infinite.
	ErrNonFinite = errors.New("non-finite price in window")
)

// Skippable reports whether err only disqualifies the instrument it was
// computed for.
func Skippable(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrZeroPrice) ||
		errors.Is(err, ErrInconsistentRange) ||
		errors.Is(err, ErrNonFinite)
}

// ComputeDecline scans the most recent window bars and returns the drawdown
// from the window high to the window low together with the window return.
func ComputeDecline(bars []model.OHLCV, window int) (model.Decline, error) {
	if window <= 0 {
		return model.Decline{}, ErrInvalidWindow
	}
	n := len(bars)
	if n < window {
		return model.Decline{}, ErrInsufficientData
	}
	start := n - window

	high := math.Inf(-1)
	low := math.Inf(1)
	for i := start; i < n; i++ {
		if !finite(bars[i].High) || !finite(bars[i].Low) || !finite(bars[i].Close) {
			return model.Decline{}, ErrNonFinite
		}
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}

	first := bars[start].Close
	last := bars[n-1].Close
	if high == 0 || first == 0 {
		return model.Decline{}, ErrZeroPrice
	}
	if low > high {
		return model.Decline{}, ErrInconsistentRange
	}

	d := model.Decline{
		MaxDeclinePct:   (low - high) / high * 100,
		PeriodReturnPct: (last - first) / first * 100,
		MaxPrice:        high,
		MinPrice:        low,
		CurrentPrice:    last,
	}
	if math.IsNaN(d.MaxDeclinePct) || math.IsInf(d.MaxDeclinePct, 0) ||
		math.IsNaN(d.PeriodReturnPct) || math.IsInf(d.PeriodReturnPct, 0) {
		return model.Decline{}, ErrNonFinite
	}
	return d, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
