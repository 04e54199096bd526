package trends

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"MarketDecline/internal/model"
)

// recentPoints is the tail length of the recent trend chart.
const recentPoints = 30

func initOpts(title string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "450px"})
}

func interestChart(title string, keywords []string, points []model.InterestPoint) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		initOpts(title),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "날짜"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "관심도"}),
	)
	labels := make([]string, len(points))
	for i, p := range points {
		labels[i] = p.Time.Format("2006-01-02")
	}
	line.SetXAxis(labels)
	for _, kw := range keywords {
		data := make([]opts.LineData, len(points))
		for i, p := range points {
			data[i] = opts.LineData{Value: p.Values[kw]}
		}
		line.AddSeries(kw, data)
	}
	return line
}

func averageChart(ranking []model.KeywordScore) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("키워드별 평균 관심도"),
		charts.WithTitleOpts(opts.Title{Title: "키워드별 평균 관심도"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "키워드"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "평균 관심도"}),
	)
	names := make([]string, len(ranking))
	data := make([]opts.BarData, len(ranking))
	for i, s := range ranking {
		names[i] = s.Keyword
		data[i] = opts.BarData{Value: math.Round(s.Score*10) / 10}
	}
	bar.SetXAxis(names).AddSeries("평균 관심도", data)
	return bar
}

func correlationChart(keywords []string, matrix [][]float64) *charts.HeatMap {
	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		initOpts("키워드 상관관계"),
		charts.WithTitleOpts(opts.Title{Title: "키워드 상관관계 히트맵"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: keywords}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: keywords}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Min: -1,
			Max: 1,
			InRange: &opts.VisualMapInRange{
				Color: []string{"#3b4cc0", "#f7f7f7", "#b40426"},
			},
		}),
	)
	var data []opts.HeatMapData
	for i := range matrix {
		for j, v := range matrix[i] {
			data = append(data, opts.HeatMapData{Value: [3]interface{}{i, j, math.Round(v*100) / 100}})
		}
	}
	hm.SetXAxis(keywords).AddSeries("상관계수", data)
	return hm
}

// WriteCharts renders the keyword chart page to w.
func WriteCharts(w io.Writer, r *model.KeywordReport) error {
	page := components.NewPage()
	page.PageTitle = "블로그 검색어 트렌드 분석"

	recent := r.Interest
	if len(recent) > recentPoints {
		recent = recent[len(recent)-recentPoints:]
	}
	page.AddCharts(
		interestChart("시간별 키워드 관심도", r.Keywords, r.Interest),
		averageChart(r.Ranking),
		correlationChart(r.Keywords, r.Correlation),
		interestChart(fmt.Sprintf("최근 %d개 구간 추이", recentPoints), r.Keywords, recent),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render trend charts: %w", err)
	}
	return nil
}

// SaveCharts writes the keyword chart page to path.
func SaveCharts(path string, r *model.KeywordReport) error {
	return writeFile(path, func(w io.Writer) error { return WriteCharts(w, r) })
}
