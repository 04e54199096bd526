package model

import "time"

// DailyCount is the number of blog posts seen on one day.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

// TrendDirection describes how search volume moved over a period.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// TrendSummary condenses a daily count series.
type TrendSummary struct {
	TotalCount      int            `json:"total_count"`
	AverageCount    float64        `json:"average_count"`
	MaxCount        int            `json:"max_count"`
	MinCount        int            `json:"min_count"`
	TrendPercentage float64        `json:"trend_percentage"`
	TrendDirection  TrendDirection `json:"trend_direction"`
}

// BlogTrend is the Naver blog search result for a keyword.
type BlogTrend struct {
	Keyword     string        `json:"keyword"`
	Period      string        `json:"period"`
	DailyTrends []DailyCount  `json:"daily_trends"`
	Summary     *TrendSummary `json:"summary"`
}

// InterestPoint is one sample of the Google Trends timeline.
type InterestPoint struct {
	Time      time.Time      `json:"time"`
	Values    map[string]int `json:"values"`
	IsPartial bool           `json:"is_partial"`
}

// RankedQuery is a related search term and its score.
type RankedQuery struct {
	Query string `json:"query"`
	Value int    `json:"value"`
}

// RelatedQueries holds the top and rising related searches of a keyword.
type RelatedQueries struct {
	Top    []RankedQuery `json:"top"`
	Rising []RankedQuery `json:"rising"`
}

// RegionInterest is interest for a keyword in one region.
type RegionInterest struct {
	Region string `json:"region"`
	Value  int    `json:"value"`
}

// GoogleTrend is the Google Trends result for a single keyword.
type GoogleTrend struct {
	Keyword          string           `json:"keyword"`
	Geo              string           `json:"geo"`
	Timeframe        string           `json:"timeframe"`
	InterestOverTime []InterestPoint  `json:"interest_over_time"`
	RelatedQueries   RelatedQueries   `json:"related_queries"`
	InterestByRegion []RegionInterest `json:"interest_by_region"`
}

// KeywordScore is a keyword's average interest.
type KeywordScore struct {
	Keyword string  `json:"keyword"`
	Score   float64 `json:"score"`
}

// KeywordReport is the result of comparing several keywords.
type KeywordReport struct {
	Keywords         []string                  `json:"keywords"`
	Timeframe        string                    `json:"timeframe"`
	Interest         []InterestPoint           `json:"interest"`
	Ranking          []KeywordScore            `json:"ranking"`
	Correlation      [][]float64               `json:"correlation"`
	TrendingSearches []string                  `json:"trending_searches"`
	RelatedQueries   map[string]RelatedQueries `json:"related_queries"`
	GeneratedAt      time.Time                 `json:"generated_at"`
}
