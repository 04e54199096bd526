package trends

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"MarketDecline/internal/logging"
	"MarketDecline/internal/model"
)

// DefaultKeywords are popular Korean blog topics.
var DefaultKeywords = []string{
	"맛집", "여행", "카페", "맛집 추천", "데이트",
	"운동", "다이어트", "요리", "패션", "뷰티",
	"육아", "일상", "취미", "독서", "영화",
	"드라마", "K-pop", "게임", "투자", "부동산",
}

// GoogleSource is the subset of Google Trends used by KeywordAnalyzer.
type GoogleSource interface {
	InterestOverTime(ctx context.Context, keywords []string, timeframe, geo string) ([]model.InterestPoint, error)
	RelatedQueries(ctx context.Context, keyword, timeframe, geo string) (model.RelatedQueries, error)
	TrendingSearches(ctx context.Context, geo string) ([]string, error)
}

// KeywordAnalyzer compares the search interest of several keywords.
type KeywordAnalyzer struct {
	Source   GoogleSource
	Geo      string
	Defaults []string
	// Pacing is the pause between per-keyword related query lookups.
	Pacing time.Duration
	Now    func() time.Time
	log    zerolog.Logger
}

// NewKeywordAnalyzer creates a new keyword analyzer.
func NewKeywordAnalyzer(source GoogleSource, geo string, defaults []string) *KeywordAnalyzer {
	if len(defaults) == 0 {
		defaults = DefaultKeywords
	}
	return &KeywordAnalyzer{
		Source:   source,
		Geo:      geo,
		Defaults: defaults,
		Pacing:   time.Second,
		Now:      time.Now,
		log:      logging.Component("keywords"),
	}
}

// Analyze builds a keyword report. Failing lookups are logged and leave
// their section empty; only context cancellation aborts the analysis.
func (a *KeywordAnalyzer) Analyze(ctx context.Context, keywords []string, timeframe string) (*model.KeywordReport, error) {
	if len(keywords) == 0 {
		keywords = a.Defaults
		if len(keywords) > MaxKeywords {
			keywords = keywords[:MaxKeywords]
		}
	}
	if len(keywords) > MaxKeywords {
		a.log.Warn().Int("requested", len(keywords)).Int("max", MaxKeywords).Msg("Too many keywords, analyzing the first ones only")
		keywords = keywords[:MaxKeywords]
	}
	if timeframe == "" {
		timeframe = "today 12-m"
	}
	a.log.Info().Strs("keywords", keywords).Str("timeframe", timeframe).Msg("Analyzing keywords")

	report := &model.KeywordReport{
		Keywords:       keywords,
		Timeframe:      timeframe,
		RelatedQueries: make(map[string]model.RelatedQueries, len(keywords)),
		GeneratedAt:    a.Now(),
	}

	interest, err := a.Source.InterestOverTime(ctx, keywords, timeframe, a.Geo)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.log.Warn().Err(err).Msg("Interest over time unavailable")
	}
	report.Interest = interest
	report.Ranking = Ranking(keywords, interest)
	report.Correlation = CorrelationMatrix(keywords, interest)

	trending, err := a.Source.TrendingSearches(ctx, a.Geo)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.log.Warn().Err(err).Msg("Trending searches unavailable")
	}
	report.TrendingSearches = trending

	for i, kw := range keywords {
		if i > 0 && a.Pacing > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(a.Pacing):
			}
		}
		rq, err := a.Source.RelatedQueries(ctx, kw, timeframe, a.Geo)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.log.Warn().Err(err).Str("keyword", kw).Msg("Related queries unavailable")
			continue
		}
		report.RelatedQueries[kw] = rq
	}
	return report, nil
}

func series(keyword string, points []model.InterestPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = float64(p.Values[keyword])
	}
	return out
}

// Ranking orders keywords by average interest, highest first.
func Ranking(keywords []string, points []model.InterestPoint) []model.KeywordScore {
	if len(points) == 0 {
		return nil
	}
	out := make([]model.KeywordScore, len(keywords))
	for i, kw := range keywords {
		out[i] = model.KeywordScore{Keyword: kw, Score: mean(series(kw, points))}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// CorrelationMatrix returns the pairwise Pearson correlation of keyword
// interest, indexed like keywords.
func CorrelationMatrix(keywords []string, points []model.InterestPoint) [][]float64 {
	if len(points) == 0 {
		return nil
	}
	data := make([][]float64, len(keywords))
	for i, kw := range keywords {
		data[i] = series(kw, points)
	}
	m := make([][]float64, len(keywords))
	for i := range m {
		m[i] = make([]float64, len(keywords))
		for j := range m[i] {
			if i == j {
				m[i][j] = 1
				continue
			}
			m[i][j] = Correlation(data[i], data[j])
		}
	}
	return m
}
