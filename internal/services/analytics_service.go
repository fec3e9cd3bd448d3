// Package services orchestrates the trade pipeline: registry discovery,
// per-instrument loading, combination and statistics computation.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"tradepulse/internal/registry"
	"tradepulse/internal/stats"
	"tradepulse/internal/trades"
)

// ErrNoInstruments is returned when the registry has no usable instrument
// pairs at all (an empty *selection* is not an error).
var ErrNoInstruments = errors.New("no instruments discovered")

// Notifier publishes dashboard refresh events. Nil-safe via NopNotifier.
type Notifier interface {
	Broadcast(event string, payload interface{})
}

// NopNotifier drops all events.
type NopNotifier struct{}

// Broadcast implements Notifier.
func (NopNotifier) Broadcast(string, interface{}) {}

// Metrics receives engine counters. Implemented by the telemetry layer.
type Metrics interface {
	AddReportsComputed(ctx context.Context, n int64)
	AddTradesLoaded(ctx context.Context, n int64)
	AddInstrumentFailures(ctx context.Context, n int64)
}

// NopMetrics drops all counters.
type NopMetrics struct{}

func (NopMetrics) AddReportsComputed(context.Context, int64)    {}
func (NopMetrics) AddTradesLoaded(context.Context, int64)      {}
func (NopMetrics) AddInstrumentFailures(context.Context, int64) {}

// ReportRequest selects the instruments, per-instrument settings and date
// range for one dashboard computation.
type ReportRequest struct {
	Instruments []string                         `json:"instruments"`
	StartDate   string                           `json:"start_date" validate:"required"`
	EndDate     string                           `json:"end_date" validate:"required"`
	Directions  map[string]trades.DirectionMode  `json:"directions"`
	Contracts   map[string]int                   `json:"contracts"`
}

// InstrumentSummary is the raw content of one instrument's summary CSV.
type InstrumentSummary struct {
	Instrument string     `json:"instrument"`
	Header     []string   `json:"header"`
	Rows       [][]string `json:"rows"`
}

// InstrumentFailure surfaces exactly which instrument failed and why.
type InstrumentFailure struct {
	Instrument string `json:"instrument"`
	Reason     string `json:"reason"`
}

// InstrumentReport is the full statistics battery for one instrument.
type InstrumentReport struct {
	Contracts int                     `json:"contracts"`
	Report    stats.Report            `json:"report"`
	Equity    []stats.EquityPoint     `json:"equity"`
	Drawdown  []float64               `json:"drawdown"`
	Weekday   []stats.WeekdayStats    `json:"weekday"`
	Daily     stats.ConcurrencyReport `json:"daily_concurrency"`
	Window    stats.ConcurrencyReport `json:"window_concurrency"`
}

// Dashboard is one complete analytics response: the combined portfolio
// battery plus the same battery per instrument. It is request-scoped and
// never cached; identical requests recompute from raw rows.
type Dashboard struct {
	Combined stats.Report            `json:"combined"`
	Equity   []stats.EquityPoint     `json:"equity"`
	Drawdown []float64               `json:"drawdown"`
	Weekday  []stats.WeekdayStats    `json:"weekday"`
	Daily    stats.ConcurrencyReport `json:"daily_concurrency"`
	Window   stats.ConcurrencyReport `json:"window_concurrency"`

	Instruments map[string]InstrumentReport `json:"instruments"`
	Failures    []InstrumentFailure         `json:"failures,omitempty"`

	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// AnalyticsService computes dashboards from raw instrument CSV sources.
type AnalyticsService struct {
	registry  registry.Registry
	processor *trades.Processor
	notifier  Notifier
	metrics   Metrics
	logger    *slog.Logger
}

// NewAnalyticsService creates the analytics service. notifier and metrics
// may be nil.
func NewAnalyticsService(reg registry.Registry, logger *slog.Logger, notifier Notifier, metrics Metrics) *AnalyticsService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &AnalyticsService{
		registry:  reg,
		processor: trades.NewProcessor(logger),
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger.With(slog.String("component", "analytics_service")),
	}
}

// ListInstruments returns the discovered instrument short codes, sorted.
func (s *AnalyticsService) ListInstruments(ctx context.Context) ([]string, error) {
	instruments, err := s.registry.Instruments(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover instruments: %w", err)
	}
	names := make([]string, 0, len(instruments))
	for name := range instruments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// InstrumentSummary returns the raw header and rows of one instrument's
// summary CSV for display alongside its trades.
func (s *AnalyticsService) InstrumentSummary(ctx context.Context, name string) (*InstrumentSummary, error) {
	instruments, err := s.registry.Instruments(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover instruments: %w", err)
	}
	files, ok := instruments[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", trades.ErrNotFound, name)
	}

	header, rows, err := trades.LoadSummary(files.Summary)
	if err != nil {
		return nil, err
	}
	return &InstrumentSummary{Instrument: name, Header: header, Rows: rows}, nil
}

// BuildDashboard runs the full pipeline for one request. Per-instrument
// failures are reported in the dashboard, never as a request error; an
// empty combined set produces a well-defined zero dashboard.
func (s *AnalyticsService) BuildDashboard(ctx context.Context, req ReportRequest) (*Dashboard, error) {
	start, err := trades.ParseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := trades.ParseDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}

	instruments, err := s.registry.Instruments(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover instruments: %w", err)
	}

	began := time.Now()
	results, combined := s.processor.LoadAndProcess(ctx,
		instruments, req.Instruments, req.Directions, req.Contracts, start, end)

	dashboard := &Dashboard{
		Instruments: make(map[string]InstrumentReport),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}

	dashboard.Combined, dashboard.Equity, dashboard.Drawdown = stats.Compute(combined)
	dashboard.Weekday = stats.DayOfWeekBreakdown(combined)
	dashboard.Daily = stats.DailyConcurrency(combined)
	dashboard.Window = stats.WindowConcurrency(combined)

	failures := 0
	for name, result := range results {
		if result.Failed() {
			failures++
			dashboard.Failures = append(dashboard.Failures, InstrumentFailure{
				Instrument: name,
				Reason:     result.Err.Error(),
			})
			continue
		}

		ir := InstrumentReport{Contracts: result.Contracts}
		ir.Report, ir.Equity, ir.Drawdown = stats.Compute(result.Set)
		ir.Report.Instrument = name
		ir.Weekday = stats.DayOfWeekBreakdown(result.Set)
		ir.Daily = stats.DailyConcurrency(result.Set)
		ir.Window = stats.WindowConcurrency(result.Set)
		dashboard.Instruments[name] = ir
	}
	sort.Slice(dashboard.Failures, func(i, j int) bool {
		return dashboard.Failures[i].Instrument < dashboard.Failures[j].Instrument
	})

	s.metrics.AddReportsComputed(ctx, 1)
	s.metrics.AddTradesLoaded(ctx, int64(combined.Len()))
	s.metrics.AddInstrumentFailures(ctx, int64(failures))

	s.logger.InfoContext(ctx, "dashboard computed",
		slog.Int("selected", len(req.Instruments)),
		slog.Int("instruments", len(dashboard.Instruments)),
		slog.Int("failures", failures),
		slog.Int("combined_trades", combined.Len()),
		slog.Duration("elapsed", time.Since(began)),
	)

	s.notifier.Broadcast("report:computed", map[string]interface{}{
		"instruments": len(dashboard.Instruments),
		"trades":      combined.Len(),
		"start_date":  req.StartDate,
		"end_date":    req.EndDate,
	})

	return dashboard, nil
}
