// Command stats-report computes the trading-performance dashboard for a
// data directory and date range, prints a summary and writes the Excel
// workbook without running the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"tradepulse/internal/config"
	"tradepulse/internal/exporter"
	"tradepulse/internal/infrastructure"
	"tradepulse/internal/registry"
	"tradepulse/internal/services"
)

func main() {
	dataDir := flag.String("data", "data", "directory containing <instrument>-trades.csv / -summary.csv pairs")
	outputDir := flag.String("out", "reports", "output directory for the workbook")
	startDate := flag.String("start", "", "start date (DD/MM/YYYY, inclusive)")
	endDate := flag.String("end", "", "end date (DD/MM/YYYY, inclusive)")
	instruments := flag.String("instruments", "", "comma-separated instrument short codes (default: all discovered)")
	accountPrefix := flag.String("prefix", "ROA305-", "account prefix stripped from file names")
	equityCSV := flag.Bool("equity-csv", false, "also write the combined equity curve as CSV")
	flag.Parse()

	if *startDate == "" || *endDate == "" {
		fmt.Fprintln(os.Stderr, "both -start and -end are required (DD/MM/YYYY)")
		flag.Usage()
		os.Exit(2)
	}

	logger, err := infrastructure.InitializeLogger(config.LoggingConfig{
		Level:  "info",
		Output: "console",
	})
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	reg := registry.NewDirRegistry(*dataDir, *accountPrefix)
	service := services.NewAnalyticsService(reg, logger, nil, nil)

	var selected []string
	if *instruments != "" {
		for _, name := range strings.Split(*instruments, ",") {
			if name = strings.TrimSpace(name); name != "" {
				selected = append(selected, strings.ToUpper(name))
			}
		}
	} else {
		selected, err = service.ListInstruments(ctx)
		if err != nil {
			logger.Error("Failed to discover instruments", "error", err)
			os.Exit(1)
		}
	}
	if len(selected) == 0 {
		logger.Error("No instruments to analyze", "data_dir", *dataDir)
		os.Exit(1)
	}

	dashboard, err := service.BuildDashboard(ctx, services.ReportRequest{
		Instruments: selected,
		StartDate:   *startDate,
		EndDate:     *endDate,
	})
	if err != nil {
		logger.Error("Failed to build dashboard", "error", err)
		os.Exit(1)
	}

	for _, failure := range dashboard.Failures {
		logger.Warn("Instrument skipped",
			"instrument", failure.Instrument,
			"reason", failure.Reason)
	}

	printSummary(dashboard)

	writer := exporter.NewExcelWriter(*outputDir, logger)
	path, err := writer.WriteDashboard(dashboard)
	if err != nil {
		logger.Error("Failed to write workbook", "error", err)
		os.Exit(1)
	}
	fmt.Printf("\nWorkbook written to %s\n", path)

	if *equityCSV {
		csvWriter := exporter.NewCSVWriter(*outputDir, logger)
		csvPath, err := csvWriter.WriteEquityCurve("equity_curve.csv", dashboard.Equity, dashboard.Drawdown)
		if err != nil {
			logger.Error("Failed to write equity CSV", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Equity curve written to %s\n", csvPath)
	}
}

func printSummary(d *services.Dashboard) {
	r := d.Combined
	fmt.Printf("Combined performance %s - %s\n", d.StartDate, d.EndDate)
	fmt.Printf("  Instruments:     %d (%d failed)\n", len(d.Instruments), len(d.Failures))
	fmt.Printf("  Trades:          %d (%d wins / %d losses, %.2f%% win rate)\n",
		r.TradeCount, r.WinCount, r.LossCount, r.WinRate)
	fmt.Printf("  Net profit:      %.2f\n", r.TotalNetProfit)
	fmt.Printf("  Profit factor:   %.2f\n", r.ProfitFactor)
	fmt.Printf("  Max drawdown:    %.2f\n", r.MaxDrawdown)
	fmt.Printf("  Expectancy:      %.2f\n", r.Expectancy)
	fmt.Printf("  Sharpe ratio:    %.2f\n", r.SharpeRatio)
	fmt.Printf("  Time in market:  %.2f%%\n", r.PctTimeInMarket)
	fmt.Printf("  Max concurrency: %d instruments/day, %d instruments/5min\n",
		d.Daily.MaxInstruments, d.Window.MaxInstruments)
}
