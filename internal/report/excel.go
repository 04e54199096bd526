package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"MarketDecline/internal/decline"
	"MarketDecline/internal/model"
)

// Workbook sheet names.
const (
	SheetAll     = "전체_데이터"
	SheetSummary = "통계_요약"
	SheetTop     = "상위_하락_종목"
)

var recordHeader = []interface{}{
	"Code", "Name", "Market", "Max_Decline_Rate", "Period_Return",
	"Max_Price", "Min_Price", "Current_Price", "Decline_Category",
}

// BuildWorkbook lays out res as a workbook. The caller owns the returned
// file and must Close it.
func BuildWorkbook(res *model.AnalysisResult, opts Options) (*excelize.File, error) {
	f := excelize.NewFile()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F2F2F2"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("excel header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetAll); err != nil {
		f.Close()
		return nil, fmt.Errorf("excel rename sheet: %w", err)
	}
	if err := writeRecords(f, SheetAll, res.Records, header); err != nil {
		f.Close()
		return nil, err
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("excel new sheet %s: %w", SheetSummary, err)
	}
	if err := writeSummary(f, SheetSummary, res, header); err != nil {
		f.Close()
		return nil, err
	}

	sheets := []struct {
		name    string
		records []model.DeclineRecord
	}{
		{SheetTop, decline.RankWorst(res.Records, opts.ExcelTop)},
		{string(model.MarketKOSPI), decline.FilterMarket(res.Records, model.MarketKOSPI)},
		{string(model.MarketKOSDAQ), decline.FilterMarket(res.Records, model.MarketKOSDAQ)},
	}
	for _, s := range sheets {
		if len(s.records) == 0 && s.name != SheetTop {
			continue
		}
		if _, err := f.NewSheet(s.name); err != nil {
			f.Close()
			return nil, fmt.Errorf("excel new sheet %s: %w", s.name, err)
		}
		if err := writeRecords(f, s.name, s.records, header); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// WriteExcel writes the workbook of res to w.
func WriteExcel(w io.Writer, res *model.AnalysisResult, opts Options) error {
	f, err := BuildWorkbook(res, opts)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveExcel writes the workbook of res to path.
func SaveExcel(path string, res *model.AnalysisResult, opts Options) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteExcel(w, res, opts)
	})
}

func writeRecords(f *excelize.File, sheet string, records []model.DeclineRecord, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &recordHeader); err != nil {
		return fmt.Errorf("excel %s header: %w", sheet, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(recordHeader), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("excel %s header style: %w", sheet, err)
	}
	for i, r := range records {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			r.Code, r.Name, string(r.Market), r.MaxDeclinePct, r.PeriodReturnPct,
			r.MaxPrice, r.MinPrice, r.CurrentPrice, decline.Categorize(r.MaxDeclinePct).String(),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("excel %s row %d: %w", sheet, i+2, err)
		}
	}
	if err := f.SetColWidth(sheet, "A", "I", 16); err != nil {
		return fmt.Errorf("excel %s widths: %w", sheet, err)
	}
	return nil
}

func writeSummary(f *excelize.File, sheet string, res *model.AnalysisResult, style int) error {
	s := res.Summary
	rows := [][]interface{}{
		{"항목", "값"},
		{"시장", res.MarketName},
		{"분석 기간(일)", res.PeriodDays},
		{"총_종목수", s.Count},
		{"제외_종목수", res.Skipped},
		{"평균_하락률", s.Mean},
		{"중앙값_하락률", s.Median},
		{"표준편차_하락률", s.Std},
		{"최대_하락률", s.MaxDecline()},
		{"최소_하락률", s.MinDecline()},
		{},
		{"하락률 구간", "종목 수", "비율(%)"},
	}
	for _, c := range s.Distribution {
		rows = append(rows, []interface{}{c.Label, c.Count, s.Share(c)})
	}
	if len(s.ByMarket) > 0 {
		rows = append(rows, []interface{}{}, []interface{}{"시장", "종목 수", "평균", "중앙값", "표준편차", "최대_하락률", "최소_하락률"})
		for _, m := range []model.Market{model.MarketKOSPI, model.MarketKOSDAQ} {
			ms, ok := s.ByMarket[m]
			if !ok {
				continue
			}
			rows = append(rows, []interface{}{string(m), ms.Count, ms.Mean, ms.Median, ms.Std, ms.MaxDecline(), ms.MinDecline()})
		}
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("excel %s row %d: %w", sheet, i+1, err)
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "B1", style); err != nil {
		return fmt.Errorf("excel %s header style: %w", sheet, err)
	}
	if err := f.SetColWidth(sheet, "A", "G", 16); err != nil {
		return fmt.Errorf("excel %s widths: %w", sheet, err)
	}
	return nil
}
