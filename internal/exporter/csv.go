package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"tradepulse/internal/stats"
)

// CSVWriter exports the equity curve as a flat CSV for spreadsheet
// consumers that do not want the full workbook.
type CSVWriter struct {
	reportsDir string
	logger     *slog.Logger
}

// NewCSVWriter creates a CSV writer rooted at reportsDir.
func NewCSVWriter(reportsDir string, logger *slog.Logger) *CSVWriter {
	return &CSVWriter{
		reportsDir: reportsDir,
		logger:     logger.With(slog.String("component", "csv_writer")),
	}
}

// WriteEquityCurve writes the equity and drawdown series to name under
// the reports directory and returns the full path.
func (w *CSVWriter) WriteEquityCurve(name string, equity []stats.EquityPoint, drawdown []float64) (string, error) {
	if err := os.MkdirAll(w.reportsDir, 0755); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}
	fullPath := filepath.Join(w.reportsDir, name)

	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return "", fmt.Errorf("open csv file: %w", err)
	}
	defer file.Close()

	// UTF-8 BOM so Excel opens the file cleanly.
	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return "", fmt.Errorf("write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"exit_time", "equity", "drawdown"}); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for i, point := range equity {
		var dd float64
		if i < len(drawdown) {
			dd = drawdown[i]
		}
		record := []string{
			point.Time.Format(exportTimeLayout),
			strconv.FormatFloat(point.Equity, 'f', 2, 64),
			strconv.FormatFloat(dd, 'f', 2, 64),
		}
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("write record %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}

	w.logger.Info("equity curve exported",
		slog.String("path", fullPath),
		slog.Int("points", len(equity)),
	)
	return fullPath, nil
}
