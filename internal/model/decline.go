package model

import "time"

// Decline is the per-instrument result of the decline computation.
type Decline struct {
	MaxDeclinePct   float64 `json:"max_decline_pct"`
	PeriodReturnPct float64 `json:"period_return_pct"`
	MaxPrice        float64 `json:"max_price"`
	MinPrice        float64 `json:"min_price"`
	CurrentPrice    float64 `json:"current_price"`
}

// DeclineRecord ties a Decline to the instrument it was computed for.
type DeclineRecord struct {
	Instrument
	Decline
}

// Category is one of the seven fixed decline buckets.
type Category int

const (
	CategoryCrash    Category = iota // (-inf, -30)
	CategorySevere                   // [-30, -20)
	CategoryHeavy                    // [-20, -10)
	CategoryModerate                 // [-10, -5)
	CategoryMild                     // [-5, 0)
	CategoryGain                     // [0, 10)
	CategorySurge                    // [10, +inf)
)

// Categories lists every bucket in display order.
var Categories = []Category{
	CategoryCrash, CategorySevere, CategoryHeavy, CategoryModerate,
	CategoryMild, CategoryGain, CategorySurge,
}

var categoryLabels = [...]string{
	"-30% 이상",
	"-20~-30%",
	"-10~-20%",
	"-5~-10%",
	"-5~0%",
	"0~10%",
	"10% 이상",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryLabels) {
		return "unknown"
	}
	return categoryLabels[c]
}

// Stats holds the five reductions over max_decline_pct.
type Stats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// MaxDecline is the largest drop, i.e. the numeric minimum.
func (s Stats) MaxDecline() float64 { return s.Min }

// MinDecline is the smallest drop, i.e. the numeric maximum.
func (s Stats) MinDecline() float64 { return s.Max }

// CategoryCount is the number of records in one bucket.
type CategoryCount struct {
	Category Category `json:"-"`
	Label    string   `json:"label"`
	Count    int      `json:"count"`
}

// SummaryStats aggregates a set of DeclineRecords.
type SummaryStats struct {
	Stats
	Distribution []CategoryCount `json:"distribution"`
	ByMarket     map[Market]Stats `json:"by_market,omitempty"`
}

// Share returns the percentage of records that fell in the bucket.
func (s SummaryStats) Share(c CategoryCount) float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(c.Count) / float64(s.Count) * 100
}

// AnalysisResult is one completed batch run.
type AnalysisResult struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	MarketName string          `json:"market_name"`
	PeriodDays int             `json:"period_days"`
	Requested  int             `json:"requested"`
	Skipped    int             `json:"skipped"`
	Records    []DeclineRecord `json:"records"`
	Summary    SummaryStats    `json:"summary"`
}
