// Package http contains the chi HTTP handlers for the analytics API.
package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "tradepulse/internal/errors"
	"tradepulse/internal/services"
	"tradepulse/internal/trades"
)

// AnalyticsHandler handles instrument discovery, dashboard computation
// and report export.
type AnalyticsHandler struct {
	service      AnalyticsServiceInterface
	exporter     DashboardExporter
	reportsDir   string
	validate     *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalyticsHandler creates the analytics handler. exporter may be nil
// when export endpoints are not wanted.
func NewAnalyticsHandler(service AnalyticsServiceInterface, exporter DashboardExporter, reportsDir string, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalyticsHandler {
	return &AnalyticsHandler{
		service:      service,
		exporter:     exporter,
		reportsDir:   reportsDir,
		validate:     validator.New(),
		logger:       logger.With(slog.String("component", "analytics_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the analytics routes.
func (h *AnalyticsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/instruments", h.ListInstruments)
	r.Get("/instruments/{instrument}/summary", h.GetSummary)
	r.Post("/report", h.BuildReport)
	r.Post("/export", h.ExportReport)
	r.Get("/download/{filename}", h.DownloadReport)

	return r
}

// ListInstruments handles GET /api/analytics/instruments.
func (h *AnalyticsHandler) ListInstruments(w http.ResponseWriter, r *http.Request) {
	instruments, err := h.service.ListInstruments(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   instruments,
		"count":  len(instruments),
	})
}

// GetSummary handles GET /api/analytics/instruments/{instrument}/summary.
func (h *AnalyticsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "instrument")
	if name == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("instrument", "Instrument code is required"))
		return
	}

	summary, err := h.service.InstrumentSummary(r.Context(), name)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// BuildReport handles POST /api/analytics/report.
func (h *AnalyticsHandler) BuildReport(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeReportRequest(w, r)
	if !ok {
		return
	}

	dashboard, err := h.service.BuildDashboard(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   dashboard,
	})
}

// ExportReport handles POST /api/analytics/export: it computes the
// dashboard and writes the workbook, returning the download filename.
func (h *AnalyticsHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusNotImplemented, "EXPORT_DISABLED", "Export is not configured"))
		return
	}

	req, ok := h.decodeReportRequest(w, r)
	if !ok {
		return
	}

	dashboard, err := h.service.BuildDashboard(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	path, err := h.exporter.WriteDashboard(dashboard)
	if err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("export dashboard: %w", err))
		return
	}

	filename := filepath.Base(path)
	render.JSON(w, r, map[string]interface{}{
		"status":   "success",
		"filename": filename,
		"url":      "/api/analytics/download/" + filename,
	})
}

// DownloadReport handles GET /api/analytics/download/{filename}. Only
// bare filenames inside the reports directory are served.
func (h *AnalyticsHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("filename", "Invalid report filename"))
		return
	}

	fullPath := filepath.Join(h.reportsDir, filename)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, fullPath)
}

// decodeReportRequest parses and validates the report request body. On
// failure it writes the error response and returns ok=false.
func (h *AnalyticsHandler) decodeReportRequest(w http.ResponseWriter, r *http.Request) (services.ReportRequest, bool) {
	var req services.ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrInvalidRequest)
		return req, false
	}

	if err := h.validate.Struct(req); err != nil {
		var details []apierrors.ValidationError
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range errs {
				details = append(details, apierrors.ValidationError{
					Field:   fe.Field(),
					Message: fmt.Sprintf("failed %q validation", fe.Tag()),
				})
			}
		}
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", details))
		return req, false
	}

	for name, mode := range req.Directions {
		switch mode {
		case "", trades.DirectionAll, trades.DirectionLongOnly, trades.DirectionShortOnly:
		default:
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation(
				"directions", fmt.Sprintf("invalid direction %q for %s", mode, name)))
			return req, false
		}
	}
	for name, contracts := range req.Contracts {
		if contracts < 1 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation(
				"contracts", fmt.Sprintf("contracts for %s must be >= 1", name)))
			return req, false
		}
	}

	return req, true
}
