// Package exporter writes dashboard results to downloadable files:
// a multi-sheet Excel workbook and a plain equity-curve CSV.
package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"tradepulse/internal/services"
	"tradepulse/internal/stats"
)

const (
	sheetStatistics  = "Statistics"
	sheetWeekday     = "Day of Week"
	sheetDaily       = "Daily Concurrency"
	sheetWindow      = "Window Concurrency"
	sheetEquity      = "Equity Curve"
	sheetFailures    = "Failures"
	exportTimeLayout = "2006-01-02 15:04:05"
)

// ExcelWriter renders dashboards to .xlsx workbooks under the reports
// directory.
type ExcelWriter struct {
	reportsDir string
	logger     *slog.Logger
}

// NewExcelWriter creates an Excel writer rooted at reportsDir.
func NewExcelWriter(reportsDir string, logger *slog.Logger) *ExcelWriter {
	return &ExcelWriter{
		reportsDir: reportsDir,
		logger:     logger.With(slog.String("component", "excel_writer")),
	}
}

// WriteDashboard writes one workbook for the dashboard and returns the
// full path of the created file.
func (w *ExcelWriter) WriteDashboard(dashboard *services.Dashboard) (string, error) {
	if err := os.MkdirAll(w.reportsDir, 0755); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), sheetStatistics)
	if err := w.writeStatistics(f, dashboard); err != nil {
		return "", err
	}
	if err := w.writeWeekday(f, dashboard.Weekday); err != nil {
		return "", err
	}
	if err := w.writeConcurrency(f, sheetDaily, dashboard.Daily, "Day"); err != nil {
		return "", err
	}
	if err := w.writeConcurrency(f, sheetWindow, dashboard.Window, "Window"); err != nil {
		return "", err
	}
	if err := w.writeEquity(f, dashboard.Equity, dashboard.Drawdown); err != nil {
		return "", err
	}
	if len(dashboard.Failures) > 0 {
		if err := w.writeFailures(f, dashboard.Failures); err != nil {
			return "", err
		}
	}

	name := fmt.Sprintf("tradepulse_%s_%s_%s.xlsx",
		sanitizeDatePart(dashboard.StartDate),
		sanitizeDatePart(dashboard.EndDate),
		time.Now().UTC().Format("20060102T150405"))
	fullPath := filepath.Join(w.reportsDir, name)

	if err := f.SaveAs(fullPath); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	w.logger.Info("dashboard exported",
		slog.String("path", fullPath),
		slog.Int("instruments", len(dashboard.Instruments)),
		slog.Int("equity_points", len(dashboard.Equity)),
	)
	return fullPath, nil
}

// writeStatistics lays out the combined report in the first column pair,
// then one column pair per instrument.
func (w *ExcelWriter) writeStatistics(f *excelize.File, dashboard *services.Dashboard) error {
	rows := statisticsRows("Combined", dashboard.Combined)

	names := make([]string, 0, len(dashboard.Instruments))
	for name := range dashboard.Instruments {
		names = append(names, name)
	}
	// Deterministic column order.
	sort.Strings(names)

	for _, name := range names {
		ir := dashboard.Instruments[name]
		instrumentRows := statisticsRows(name, ir.Report)
		for i := range rows {
			rows[i] = append(rows[i], instrumentRows[i][1])
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("statistics cell %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheetStatistics, cell, &row); err != nil {
			return fmt.Errorf("write statistics row %d: %w", i+1, err)
		}
	}
	return nil
}

func statisticsRows(label string, r stats.Report) [][]interface{} {
	return [][]interface{}{
		{"Metric", label},
		{"Total net profit", r.TotalNetProfit},
		{"Gross profit", r.GrossProfit},
		{"Gross loss", r.GrossLoss},
		{"Trades", r.TradeCount},
		{"Winners", r.WinCount},
		{"Losers", r.LossCount},
		{"Win rate %", r.WinRate},
		{"Avg trade", r.AvgTrade},
		{"Avg win", r.AvgWin},
		{"Avg loss", r.AvgLoss},
		{"Win/loss ratio", r.WinLossRatio},
		{"Profit factor", r.ProfitFactor},
		{"Largest win", r.LargestWin},
		{"Largest loss", r.LargestLoss},
		{"Max drawdown", r.MaxDrawdown},
		{"Max consecutive wins", r.MaxConsecutiveWins},
		{"Max consecutive losses", r.MaxConsecutiveLosses},
		{"Expectancy", r.Expectancy},
		{"Avg holding time (min)", r.AvgHoldingMinutes},
		{"Avg bars in trade", r.AvgBarsInTrade},
		{"Sharpe ratio", r.SharpeRatio},
		{"Max time to recover", r.MaxTimeToRecover.String()},
		{"Max flat period", r.MaxFlatPeriod.String()},
		{"Avg flat period", r.AvgFlatPeriod.String()},
		{"% time in market", r.PctTimeInMarket},
	}
}

func (w *ExcelWriter) writeWeekday(f *excelize.File, weekdays []stats.WeekdayStats) error {
	if _, err := f.NewSheet(sheetWeekday); err != nil {
		return fmt.Errorf("create weekday sheet: %w", err)
	}

	header := []interface{}{"Day", "Net profit", "Gross profit", "Gross loss",
		"Trades", "Winners", "Losers", "Win rate %", "Avg trade", "Avg win",
		"Avg loss", "Profit factor"}
	if err := f.SetSheetRow(sheetWeekday, "A1", &header); err != nil {
		return fmt.Errorf("write weekday header: %w", err)
	}

	for i, d := range weekdays {
		row := []interface{}{d.DayName, d.TotalNetProfit, d.GrossProfit,
			d.GrossLoss, d.TradeCount, d.WinCount, d.LossCount, d.WinRate,
			d.AvgTrade, d.AvgWin, d.AvgLoss, d.ProfitFactor}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("weekday cell %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(sheetWeekday, cell, &row); err != nil {
			return fmt.Errorf("write weekday row %d: %w", i+2, err)
		}
	}
	return nil
}

func (w *ExcelWriter) writeConcurrency(f *excelize.File, sheet string, report stats.ConcurrencyReport, bucketLabel string) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create %s sheet: %w", sheet, err)
	}

	summary := [][]interface{}{
		{"Total buckets", report.TotalBuckets},
		{"Max instruments", report.MaxInstruments},
		{"Min instruments", report.MinInstruments},
		{"Avg instruments", report.AvgInstruments},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("%s summary cell %d: %w", sheet, i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s summary row %d: %w", sheet, i+1, err)
		}
	}

	header := []interface{}{bucketLabel, "Instruments", "Instrument count", "Profit"}
	if err := f.SetSheetRow(sheet, "A6", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	for i, d := range report.Details {
		row := []interface{}{
			d.Bucket.Format(exportTimeLayout),
			strings.Join(d.Instruments, ", "),
			d.InstrumentCount,
			d.Profit,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+7)
		if err != nil {
			return fmt.Errorf("%s detail cell %d: %w", sheet, i+7, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s detail row %d: %w", sheet, i+7, err)
		}
	}
	return nil
}

func (w *ExcelWriter) writeEquity(f *excelize.File, equity []stats.EquityPoint, drawdown []float64) error {
	if _, err := f.NewSheet(sheetEquity); err != nil {
		return fmt.Errorf("create equity sheet: %w", err)
	}

	header := []interface{}{"Exit time", "Equity", "Drawdown"}
	if err := f.SetSheetRow(sheetEquity, "A1", &header); err != nil {
		return fmt.Errorf("write equity header: %w", err)
	}
	for i, point := range equity {
		var dd float64
		if i < len(drawdown) {
			dd = drawdown[i]
		}
		row := []interface{}{point.Time.Format(exportTimeLayout), point.Equity, dd}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("equity cell %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(sheetEquity, cell, &row); err != nil {
			return fmt.Errorf("write equity row %d: %w", i+2, err)
		}
	}
	return nil
}

func (w *ExcelWriter) writeFailures(f *excelize.File, failures []services.InstrumentFailure) error {
	if _, err := f.NewSheet(sheetFailures); err != nil {
		return fmt.Errorf("create failures sheet: %w", err)
	}
	header := []interface{}{"Instrument", "Reason"}
	if err := f.SetSheetRow(sheetFailures, "A1", &header); err != nil {
		return fmt.Errorf("write failures header: %w", err)
	}
	for i, failure := range failures {
		row := []interface{}{failure.Instrument, failure.Reason}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failure cell %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(sheetFailures, cell, &row); err != nil {
			return fmt.Errorf("write failure row %d: %w", i+2, err)
		}
	}
	return nil
}

// sanitizeDatePart turns a DD/MM/YYYY request date into a filename-safe
// token.
func sanitizeDatePart(s string) string {
	return strings.ReplaceAll(s, "/", "-")
}
