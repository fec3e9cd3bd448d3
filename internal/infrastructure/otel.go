package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// ServiceName identifies this service in telemetry output.
	ServiceName    = "tradepulse"
	ServiceVersion = "1.0.0"
	meterName      = "tradepulse"
)

// Telemetry holds the OpenTelemetry providers and the domain instruments.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter

	// PrometheusHTTP serves the /metrics scrape endpoint.
	PrometheusHTTP http.Handler

	// Domain instruments.
	ReportsComputed    metric.Int64Counter
	TradesLoaded       metric.Int64Counter
	InstrumentFailures metric.Int64Counter

	logger *slog.Logger
}

// InitializeTelemetry wires the metric provider (Prometheus exporter) and,
// in development, a stdout trace exporter.
func InitializeTelemetry(logger *slog.Logger) (*Telemetry, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create otel resource: %w", err)
	}

	t := &Telemetry{logger: logger}

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	t.MeterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
	)
	otel.SetMeterProvider(t.MeterProvider)
	t.Meter = t.MeterProvider.Meter(meterName)
	t.PrometheusHTTP = promhttp.Handler()

	if os.Getenv("ENVIRONMENT") == "development" {
		traceExporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout trace exporter: %w", err)
		}
		t.TracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithBatcher(traceExporter),
		)
	} else {
		t.TracerProvider = sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	}
	otel.SetTracerProvider(t.TracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	t.Tracer = t.TracerProvider.Tracer(meterName)

	if err := t.createInstruments(); err != nil {
		return nil, err
	}

	logger.Info("telemetry initialized",
		slog.String("service", ServiceName),
		slog.String("version", ServiceVersion),
	)
	return t, nil
}

func (t *Telemetry) createInstruments() error {
	var err error
	t.ReportsComputed, err = t.Meter.Int64Counter("tradepulse_reports_computed_total",
		metric.WithDescription("Dashboard reports computed"))
	if err != nil {
		return fmt.Errorf("create reports counter: %w", err)
	}
	t.TradesLoaded, err = t.Meter.Int64Counter("tradepulse_trades_loaded_total",
		metric.WithDescription("Trade rows loaded across all instruments"))
	if err != nil {
		return fmt.Errorf("create trades counter: %w", err)
	}
	t.InstrumentFailures, err = t.Meter.Int64Counter("tradepulse_instrument_failures_total",
		metric.WithDescription("Instrument pipelines that failed and were skipped"))
	if err != nil {
		return fmt.Errorf("create failures counter: %w", err)
	}
	return nil
}

// AddReportsComputed increments the dashboard-report counter.
func (t *Telemetry) AddReportsComputed(ctx context.Context, n int64) {
	t.ReportsComputed.Add(ctx, n)
}

// AddTradesLoaded increments the loaded-trades counter.
func (t *Telemetry) AddTradesLoaded(ctx context.Context, n int64) {
	t.TradesLoaded.Add(ctx, n)
}

// AddInstrumentFailures increments the skipped-instrument counter.
func (t *Telemetry) AddInstrumentFailures(ctx context.Context, n int64) {
	t.InstrumentFailures.Add(ctx, n)
}

// Shutdown flushes and stops the providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown tracer provider: %w", err)
		}
	}
	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown meter provider: %w", err)
		}
	}
	return nil
}
