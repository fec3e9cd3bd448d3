package services

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradepulse/internal/registry"
	"tradepulse/internal/trades"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeTrades(t *testing.T, dir, name, content string) trades.InstrumentFiles {
	t.Helper()
	path := filepath.Join(dir, name+"-trades.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return trades.InstrumentFiles{Trades: path}
}

type captureNotifier struct {
	mu     sync.Mutex
	events []string
}

func (c *captureNotifier) Broadcast(event string, payload interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

type captureMetrics struct {
	reports, loaded, failures int64
}

func (m *captureMetrics) AddReportsComputed(_ context.Context, n int64)    { m.reports += n }
func (m *captureMetrics) AddTradesLoaded(_ context.Context, n int64)      { m.loaded += n }
func (m *captureMetrics) AddInstrumentFailures(_ context.Context, n int64) { m.failures += n }

func TestListInstruments(t *testing.T) {
	reg := registry.Static{
		"GC": {Trades: "gc"},
		"ES": {Trades: "es"},
	}
	svc := NewAnalyticsService(reg, testLogger(), nil, nil)

	names, err := svc.ListInstruments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ES", "GC"}, names)
}

func TestBuildDashboard(t *testing.T) {
	dir := t.TempDir()
	reg := registry.Static{
		// 04/03/2024 is a Monday.
		"GC": writeTrades(t, dir, "gc",
			"Entry time,Exit time,Profit\n"+
				"04/03/2024 10:00:00,04/03/2024 11:00:00,$100.00\n"+
				"04/03/2024 14:00:00,04/03/2024 15:00:00,$50.00\n"),
		"ES": writeTrades(t, dir, "es",
			"Entry time,Exit time,Profit\n"+
				"04/03/2024 10:30:00,04/03/2024 12:00:00,$-20.00\n"),
		"BROKEN": {Trades: filepath.Join(dir, "missing-trades.csv")},
	}

	notifier := &captureNotifier{}
	metrics := &captureMetrics{}
	svc := NewAnalyticsService(reg, testLogger(), notifier, metrics)

	dashboard, err := svc.BuildDashboard(context.Background(), ReportRequest{
		Instruments: []string{"GC", "ES", "BROKEN"},
		StartDate:   "04/03/2024",
		EndDate:     "04/03/2024",
	})
	require.NoError(t, err)

	// Combined battery.
	assert.Equal(t, 3, dashboard.Combined.TradeCount)
	assert.InDelta(t, 130.0, dashboard.Combined.TotalNetProfit, 1e-9)
	assert.InDelta(t, 66.6667, dashboard.Combined.WinRate, 1e-3)
	assert.Len(t, dashboard.Equity, 3)
	assert.Len(t, dashboard.Drawdown, 3)

	// Monday-only weekday breakdown.
	require.Len(t, dashboard.Weekday, 1)
	assert.Equal(t, "Monday", dashboard.Weekday[0].DayName)

	// Two distinct instruments entered the same calendar day.
	assert.Equal(t, 2, dashboard.Daily.MaxInstruments)

	// Per-instrument reports.
	require.Len(t, dashboard.Instruments, 2)
	gc := dashboard.Instruments["GC"]
	assert.Equal(t, 2, gc.Report.TradeCount)
	assert.Equal(t, "GC", gc.Report.Instrument)
	assert.InDelta(t, 150.0, gc.Report.TotalNetProfit, 1e-9)

	// The broken instrument is a recorded failure, not a request error.
	require.Len(t, dashboard.Failures, 1)
	assert.Equal(t, "BROKEN", dashboard.Failures[0].Instrument)
	assert.NotEmpty(t, dashboard.Failures[0].Reason)

	assert.Equal(t, "04/03/2024", dashboard.StartDate)
	assert.Equal(t, "04/03/2024", dashboard.EndDate)

	assert.Equal(t, []string{"report:computed"}, notifier.events)
	assert.Equal(t, int64(1), metrics.reports)
	assert.Equal(t, int64(3), metrics.loaded)
	assert.Equal(t, int64(1), metrics.failures)
}

func TestInstrumentSummary(t *testing.T) {
	dir := t.TempDir()
	summaryPath := filepath.Join(dir, "gc-summary.csv")
	require.NoError(t, os.WriteFile(summaryPath,
		[]byte("Metric,Value\nNet profit,$150.00\nTrades,2\n"), 0644))

	reg := registry.Static{
		"GC": {Trades: filepath.Join(dir, "gc-trades.csv"), Summary: summaryPath},
	}
	svc := NewAnalyticsService(reg, testLogger(), nil, nil)

	t.Run("returns header and rows", func(t *testing.T) {
		summary, err := svc.InstrumentSummary(context.Background(), "GC")
		require.NoError(t, err)
		assert.Equal(t, "GC", summary.Instrument)
		assert.Equal(t, []string{"Metric", "Value"}, summary.Header)
		require.Len(t, summary.Rows, 2)
		assert.Equal(t, []string{"Net profit", "$150.00"}, summary.Rows[0])
	})

	t.Run("unknown instrument", func(t *testing.T) {
		_, err := svc.InstrumentSummary(context.Background(), "NOPE")
		assert.ErrorIs(t, err, trades.ErrNotFound)
	})
}

func TestBuildDashboard_BadDates(t *testing.T) {
	svc := NewAnalyticsService(registry.Static{}, testLogger(), nil, nil)

	_, err := svc.BuildDashboard(context.Background(), ReportRequest{
		StartDate: "2024-03-04",
		EndDate:   "04/03/2024",
	})
	var parseErr *trades.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "start_date", parseErr.Field)

	_, err = svc.BuildDashboard(context.Background(), ReportRequest{
		StartDate: "04/03/2024",
		EndDate:   "bad",
	})
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "end_date", parseErr.Field)
}

func TestBuildDashboard_EmptySelection(t *testing.T) {
	svc := NewAnalyticsService(registry.Static{}, testLogger(), nil, nil)

	dashboard, err := svc.BuildDashboard(context.Background(), ReportRequest{
		StartDate: "04/03/2024",
		EndDate:   "05/03/2024",
	})
	require.NoError(t, err)

	// Empty selection yields a well-defined zero dashboard.
	assert.Equal(t, 0, dashboard.Combined.TradeCount)
	assert.Empty(t, dashboard.Instruments)
	assert.Empty(t, dashboard.Failures)
	assert.Nil(t, dashboard.Equity)
}

func TestBuildDashboard_DirectionsAndContracts(t *testing.T) {
	dir := t.TempDir()
	reg := registry.Static{
		"GC": writeTrades(t, dir, "gc",
			"Entry time,Exit time,Profit,Market pos.\n"+
				"04/03/2024 10:00:00,04/03/2024 11:00:00,$100.00,Long\n"+
				"04/03/2024 12:00:00,04/03/2024 13:00:00,$-40.00,Short\n"),
	}
	svc := NewAnalyticsService(reg, testLogger(), nil, nil)

	dashboard, err := svc.BuildDashboard(context.Background(), ReportRequest{
		Instruments: []string{"GC"},
		StartDate:   "04/03/2024",
		EndDate:     "04/03/2024",
		Directions:  map[string]trades.DirectionMode{"GC": trades.DirectionLongOnly},
		Contracts:   map[string]int{"GC": 2},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, dashboard.Combined.TradeCount)
	assert.InDelta(t, 200.0, dashboard.Combined.TotalNetProfit, 1e-9)
	assert.Equal(t, 2, dashboard.Instruments["GC"].Contracts)
}
