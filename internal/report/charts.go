package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"MarketDecline/internal/decline"
	"MarketDecline/internal/model"
)

const chartWidth = "900px"

func newInit(title string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: chartWidth, Height: "450px"})
}

func histogramChart(res *model.AnalysisResult, bins int) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		newInit("하락률 분포"),
		charts.WithTitleOpts(opts.Title{Title: "하락률 분포 히스토그램", Subtitle: res.MarketName}),
		charts.WithXAxisOpts(opts.XAxis{Name: "하락률 (%)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "종목 수"}),
	)
	var labels []string
	var data []opts.BarData
	for _, b := range decline.Histogram(decline.Values(res.Records), bins) {
		labels = append(labels, fmt.Sprintf("%.1f~%.1f", b.Lower, b.Upper))
		data = append(data, opts.BarData{Value: b.Count})
	}
	bar.SetXAxis(labels).AddSeries("하락률 분포", data)
	return bar
}

func marketBoxChart(res *model.AnalysisResult) *charts.BoxPlot {
	box := charts.NewBoxPlot()
	box.SetGlobalOptions(
		newInit("시장별 하락률"),
		charts.WithTitleOpts(opts.Title{Title: "시장별 하락률 박스플롯"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "시장"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "하락률 (%)"}),
	)
	var markets []string
	var data []opts.BoxPlotData
	for _, m := range []model.Market{model.MarketKOSPI, model.MarketKOSDAQ} {
		recs := decline.FilterMarket(res.Records, m)
		if len(recs) == 0 {
			continue
		}
		b := decline.BoxStats(decline.Values(recs))
		markets = append(markets, string(m))
		data = append(data, opts.BoxPlotData{Value: b[:]})
	}
	box.SetXAxis(markets).AddSeries("하락률", data)
	return box
}

func categoryChart(res *model.AnalysisResult) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		newInit("구간별 종목 수"),
		charts.WithTitleOpts(opts.Title{Title: "하락률 구간별 종목 수"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "하락률 구간"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "종목 수"}),
	)
	labels := make([]string, 0, len(res.Summary.Distribution))
	data := make([]opts.BarData, 0, len(res.Summary.Distribution))
	for _, c := range res.Summary.Distribution {
		labels = append(labels, c.Label)
		data = append(data, opts.BarData{Value: c.Count})
	}
	bar.SetXAxis(labels).AddSeries("구간별 종목 수", data)
	return bar
}

func worstChart(res *model.AnalysisResult, n int) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		newInit("상위 하락 종목"),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("상위 하락 종목 %d", n)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "종목명"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "하락률 (%)"}),
	)
	var names []string
	var data []opts.BarData
	for _, r := range decline.RankWorst(res.Records, n) {
		names = append(names, r.Name)
		data = append(data, opts.BarData{Value: math.Round(r.MaxDeclinePct*100) / 100})
	}
	bar.SetXAxis(names).AddSeries("상위 하락 종목", data)
	return bar
}

// WriteCharts renders the four-chart analysis page to w.
func WriteCharts(w io.Writer, res *model.AnalysisResult, o Options) error {
	page := components.NewPage()
	page.PageTitle = "한국 주식 시장 하락률 분석"
	page.AddCharts(
		histogramChart(res, o.HistogramBins),
		marketBoxChart(res),
		categoryChart(res),
		worstChart(res, o.ChartTop),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render charts: %w", err)
	}
	return nil
}

// SaveCharts writes the chart page to path.
func SaveCharts(path string, res *model.AnalysisResult, o Options) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteCharts(w, res, o)
	})
}
