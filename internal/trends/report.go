package trends

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"MarketDecline/internal/model"
)

const (
	reportTrendingTop = 10
	reportRelatedTop  = 5
)

// WriteReport renders a plain text keyword report to w.
func WriteReport(w io.Writer, r *model.KeywordReport) error {
	bw := bufio.NewWriter(w)
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw, "구글 트렌드 블로그 검색어 순위 분석 리포트")
	fmt.Fprintln(bw, "Google Trends Blog Keywords Ranking Report")
	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "분석 일시: %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(bw, "기간: %s\n\n", r.Timeframe)

	fmt.Fprintln(bw, "분석 키워드:")
	for i, kw := range r.Keywords {
		fmt.Fprintf(bw, "%d. %s\n", i+1, kw)
	}
	fmt.Fprintln(bw)

	if len(r.Ranking) > 0 {
		fmt.Fprintln(bw, "키워드별 평균 관심도 순위:")
		for i, s := range r.Ranking {
			fmt.Fprintf(bw, "%d. %s: %.2f\n", i+1, s.Keyword, s.Score)
		}
		fmt.Fprintln(bw)
	}

	if len(r.TrendingSearches) > 0 {
		fmt.Fprintf(bw, "실시간 트렌딩 검색어 (Top %d):\n", reportTrendingTop)
		for i, t := range head(r.TrendingSearches, reportTrendingTop) {
			fmt.Fprintf(bw, "%d. %s\n", i+1, t)
		}
		fmt.Fprintln(bw)
	}

	fmt.Fprintln(bw, "키워드별 관련 검색어:")
	for _, kw := range r.Keywords {
		rq, ok := r.RelatedQueries[kw]
		if !ok {
			continue
		}
		fmt.Fprintf(bw, "\n[%s]의 관련 검색어:\n", kw)
		if len(rq.Top) > 0 {
			fmt.Fprintln(bw, "- 인기 관련 검색어:")
			for _, q := range headQueries(rq.Top, reportRelatedTop) {
				fmt.Fprintf(bw, "  · %s (관심도: %d)\n", q.Query, q.Value)
			}
		}
		if len(rq.Rising) > 0 {
			fmt.Fprintln(bw, "- 급상승 관련 검색어:")
			for _, q := range headQueries(rq.Rising, reportRelatedTop) {
				fmt.Fprintf(bw, "  · %s (상승률: %d)\n", q.Query, q.Value)
			}
		}
	}
	return bw.Flush()
}

// SaveReport writes the text report to path.
func SaveReport(path string, r *model.KeywordReport) error {
	return writeFile(path, func(w io.Writer) error { return WriteReport(w, r) })
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func headQueries(s []model.RankedQuery, n int) []model.RankedQuery {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func writeFile(path string, render func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
