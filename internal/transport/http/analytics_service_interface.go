package http

import (
	"context"

	"tradepulse/internal/services"
)

// AnalyticsServiceInterface is the contract the analytics handler needs
// from the service layer. Kept as an interface so handler tests can
// substitute a stub.
type AnalyticsServiceInterface interface {
	ListInstruments(ctx context.Context) ([]string, error)
	InstrumentSummary(ctx context.Context, name string) (*services.InstrumentSummary, error)
	BuildDashboard(ctx context.Context, req services.ReportRequest) (*services.Dashboard, error)
}

// DashboardExporter writes a computed dashboard to a downloadable file
// and returns its full path.
type DashboardExporter interface {
	WriteDashboard(dashboard *services.Dashboard) (string, error)
}
