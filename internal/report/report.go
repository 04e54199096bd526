// Package report renders an analysis result as an HTML report, an Excel
// workbook and an interactive chart page.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"MarketDecline/internal/model"
)

// Options controls the size of the ranked tables and charts.
type Options struct {
	ReportTop     int // worst declines listed in the HTML report
	ExcelTop      int // rows of the ranked Excel sheet
	ChartTop      int // bars of the worst-decline chart
	HistogramBins int
}

// DefaultOptions mirrors the shipped configuration.
func DefaultOptions() Options {
	return Options{ReportTop: 20, ExcelTop: 50, ChartTop: 10, HistogramBins: 30}
}

// Pct formats a percentage with two decimals.
func Pct(v float64) string { return fmt.Sprintf("%.2f%%", v) }

// Won formats a price in whole won with thousands separators.
func Won(v float64) string { return humanize.Comma(int64(math.Round(v))) + "원" }

// writeFile creates path and its parent directory and hands the file to fn.
func writeFile(path string, fn func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Paths names the output files of SaveAll. Empty paths are skipped.
type Paths struct {
	HTML   string
	Excel  string
	Charts string
}

// SaveAll writes every configured report of res.
func SaveAll(p Paths, res *model.AnalysisResult, o Options, now time.Time) error {
	if p.HTML != "" {
		if err := SaveHTML(p.HTML, res, o, now); err != nil {
			return err
		}
	}
	if p.Excel != "" {
		if err := SaveExcel(p.Excel, res, o); err != nil {
			return err
		}
	}
	if p.Charts != "" {
		if err := SaveCharts(p.Charts, res, o); err != nil {
			return err
		}
	}
	return nil
}
