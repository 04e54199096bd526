package report

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"MarketDecline/internal/decline"
	"MarketDecline/internal/model"
)

var htmlTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct":   Pct,
	"won":   Won,
	"share": func(s model.SummaryStats, c model.CategoryCount) string { return fmt.Sprintf("%.1f%%", s.Share(c)) },
	"inc":   func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>한국 주식 시장 하락률 분석 리포트</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
.header { text-align: center; color: #333; }
.summary { background-color: #f0f0f0; padding: 15px; border-radius: 5px; margin: 20px 0; }
.stat-item { margin: 5px 0; }
table { border-collapse: collapse; width: 100%; margin: 20px 0; }
th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
th { background-color: #f2f2f2; }
.decline { color: #d32f2f; }
.gain { color: #388e3c; }
</style>
</head>
<body>
<div class="header">
<h1>한국 주식 시장 하락률 분석 리포트</h1>
<p>생성일: {{.Generated.Format "2006-01-02 15:04:05"}}</p>
<p>{{.Result.MarketName}} · 최근 {{.Result.PeriodDays}}일</p>
</div>

<div class="summary">
<h2>주요 통계</h2>
<div class="stat-item"><strong>분석 종목 수:</strong> {{.Summary.Count}}개</div>
<div class="stat-item"><strong>평균 하락률:</strong> {{pct .Summary.Mean}}</div>
<div class="stat-item"><strong>중앙값 하락률:</strong> {{pct .Summary.Median}}</div>
<div class="stat-item"><strong>표준편차:</strong> {{pct .Summary.Std}}</div>
<div class="stat-item"><strong>최대 하락률:</strong> <span class="decline">{{pct .Summary.MaxDecline}}</span></div>
<div class="stat-item"><strong>최소 하락률:</strong> <span class="gain">{{pct .Summary.MinDecline}}</span></div>
{{- if .Result.Skipped}}
<div class="stat-item"><strong>제외 종목 수:</strong> {{.Result.Skipped}}개</div>
{{- end}}
</div>

<h2>하락률 구간별 분포</h2>
<table>
<tr><th>하락률 구간</th><th>종목 수</th><th>비율</th></tr>
{{- range .Summary.Distribution}}
<tr><td>{{.Label}}</td><td>{{.Count}}</td><td>{{share $.Summary .}}</td></tr>
{{- end}}
</table>
{{if .Markets}}
<h2>시장별 통계</h2>
<table>
<tr><th>시장</th><th>종목 수</th><th>평균</th><th>중앙값</th><th>표준편차</th><th>최대 하락률</th><th>최소 하락률</th></tr>
{{- range .Markets}}
<tr><td>{{.Market}}</td><td>{{.Stats.Count}}</td><td>{{pct .Stats.Mean}}</td><td>{{pct .Stats.Median}}</td><td>{{pct .Stats.Std}}</td><td class="decline">{{pct .Stats.MaxDecline}}</td><td class="gain">{{pct .Stats.MinDecline}}</td></tr>
{{- end}}
</table>
{{end}}
<h2>상위 하락 종목 (하위 {{len .Worst}}개)</h2>
<table>
<tr><th>순위</th><th>종목명</th><th>종목코드</th><th>시장</th><th>하락률</th><th>현재가</th></tr>
{{- range $i, $r := .Worst}}
<tr><td>{{inc $i}}</td><td>{{$r.Name}}</td><td>{{$r.Code}}</td><td>{{$r.Market}}</td><td class="decline">{{pct $r.MaxDeclinePct}}</td><td>{{won $r.CurrentPrice}}</td></tr>
{{- end}}
</table>
</body>
</html>
`))

type marketRow struct {
	Market model.Market
	Stats  model.Stats
}

type htmlData struct {
	Generated time.Time
	Result    *model.AnalysisResult
	Summary   model.SummaryStats
	Markets   []marketRow
	Worst     []model.DeclineRecord
}

// WriteHTML renders the HTML report of res to w.
func WriteHTML(w io.Writer, res *model.AnalysisResult, opts Options, now time.Time) error {
	data := htmlData{
		Generated: now,
		Result:    res,
		Summary:   res.Summary,
		Worst:     decline.RankWorst(res.Records, opts.ReportTop),
	}
	for _, m := range []model.Market{model.MarketKOSPI, model.MarketKOSDAQ} {
		if s, ok := res.Summary.ByMarket[m]; ok {
			data.Markets = append(data.Markets, marketRow{Market: m, Stats: s})
		}
	}
	if err := htmlTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}

// SaveHTML writes the HTML report to path.
func SaveHTML(path string, res *model.AnalysisResult, opts Options, now time.Time) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteHTML(w, res, opts, now)
	})
}
