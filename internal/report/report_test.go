package report

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"MarketDecline/internal/decline"
	"MarketDecline/internal/model"
)

func sampleResult() *model.AnalysisResult {
	recs := []model.DeclineRecord{
		{Instrument: model.Instrument{Code: "005930", Name: "삼성전자", Market: model.MarketKOSPI},
			Decline: model.Decline{MaxDeclinePct: -12.5, PeriodReturnPct: -3, MaxPrice: 80000, MinPrice: 70000, CurrentPrice: 71234}},
		{Instrument: model.Instrument{Code: "000660", Name: "SK하이닉스", Market: model.MarketKOSPI},
			Decline: model.Decline{MaxDeclinePct: -35.2, PeriodReturnPct: -20, MaxPrice: 200000, MinPrice: 129600, CurrentPrice: 130000}},
		{Instrument: model.Instrument{Code: "035720", Name: "<script>카카오</script>", Market: model.MarketKOSDAQ},
			Decline: model.Decline{MaxDeclinePct: -4, PeriodReturnPct: 2, MaxPrice: 50000, MinPrice: 48000, CurrentPrice: 49000}},
	}
	return &model.AnalysisResult{
		RunID:      "run-1",
		MarketName: "KOSPI + KOSDAQ",
		PeriodDays: 30,
		Requested:  4,
		Skipped:    1,
		Records:    recs,
		Summary:    decline.Summarize(recs),
	}
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "-13.64%", Pct(-13.6364))
	assert.Equal(t, "1,234,568원", Won(1234567.8))
	assert.Equal(t, "0원", Won(0))
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, WriteHTML(&buf, sampleResult(), Options{ReportTop: 2}, now))
	out := buf.String()

	assert.Contains(t, out, "생성일: 2024-05-01 09:30:00")
	assert.Contains(t, out, "<strong>분석 종목 수:</strong> 3개")
	assert.Contains(t, out, "-35.20%")
	assert.Contains(t, out, "130,000원")
	assert.Contains(t, out, "<td>-30% 이상</td><td>1</td><td>33.3%</td>")
	assert.Contains(t, out, "<td>0~10%</td><td>0</td><td>0.0%</td>")
	assert.Contains(t, out, "상위 하락 종목 (하위 2개)")
	assert.NotContains(t, out, "<script>카카오", "names are escaped")
	assert.Contains(t, out, "시장별 통계")

	// The worst decline is listed first.
	assert.Less(t, strings.Index(out, "SK하이닉스"), strings.Index(out, "삼성전자"))
}

func TestWriteHTMLEmptyResult(t *testing.T) {
	res := &model.AnalysisResult{Summary: decline.Summarize(nil)}
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, res, DefaultOptions(), time.Now()))
	assert.Contains(t, buf.String(), "분석 종목 수:</strong> 0개")
	assert.NotContains(t, buf.String(), "시장별 통계")
}

func TestSaveExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "decline.xlsx")
	require.NoError(t, SaveExcel(path, sampleResult(), Options{ExcelTop: 2}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetAll, SheetSummary, SheetTop, "KOSPI", "KOSDAQ"}, f.GetSheetList())

	all, err := f.GetRows(SheetAll)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "Max_Decline_Rate", all[0][3])
	assert.Equal(t, "005930", all[1][0])
	assert.Equal(t, "-10~-20%", all[1][8])

	top, err := f.GetRows(SheetTop)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "000660", top[1][0])

	kosdaq, err := f.GetRows("KOSDAQ")
	require.NoError(t, err)
	assert.Len(t, kosdaq, 2)

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	var labels []string
	for _, row := range summary {
		if len(row) > 0 {
			labels = append(labels, row[0])
		}
	}
	assert.Contains(t, labels, "총_종목수")
	assert.Contains(t, labels, "-5~0%")
	assert.Contains(t, labels, "KOSDAQ")
}

func TestSaveExcelSkipsEmptyMarketSheets(t *testing.T) {
	res := sampleResult()
	res.Records = decline.FilterMarket(res.Records, model.MarketKOSPI)
	res.Summary = decline.Summarize(res.Records)

	path := filepath.Join(t.TempDir(), "kospi.xlsx")
	require.NoError(t, SaveExcel(path, res, DefaultOptions()))
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.NotContains(t, f.GetSheetList(), "KOSDAQ")
}

func TestWriteCharts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCharts(&buf, sampleResult(), DefaultOptions()))
	out := buf.String()
	assert.Contains(t, out, "echarts.init")
	assert.Contains(t, out, "<title>한국 주식 시장 하락률 분석</title>")
}

func TestSaveAll(t *testing.T) {
	dir := t.TempDir()
	p := Paths{
		HTML:   filepath.Join(dir, "r.html"),
		Excel:  filepath.Join(dir, "r.xlsx"),
		Charts: filepath.Join(dir, "c.html"),
	}
	require.NoError(t, SaveAll(p, sampleResult(), DefaultOptions(), time.Now()))
	for _, f := range []string{p.HTML, p.Excel, p.Charts} {
		assert.FileExists(t, f)
	}
}
