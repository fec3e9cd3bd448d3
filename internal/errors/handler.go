package errors

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"tradepulse/internal/trades"
)

// ErrorHandler centralizes error responses: every error leaves through
// HandleError so logging and the JSON envelope stay consistent.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates an error handler.
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger.With(slog.String("component", "error_handler"))}
}

// HandleError logs err and writes the mapped APIError response.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	apiErr := ToAPIError(err)

	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("error_code", apiErr.ErrorCode),
		slog.Int("status", apiErr.StatusCode),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	if renderErr := render.Render(w, r, NewErrorResponse(apiErr)); renderErr != nil {
		http.Error(w, apiErr.Message, apiErr.StatusCode)
	}
}

// ToAPIError maps domain errors onto the API taxonomy. Unknown errors
// become opaque 500s; the original message is logged, not leaked.
func ToAPIError(err error) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	var schemaErr *trades.SchemaError
	if stderrors.As(err, &schemaErr) {
		return NewWithDetails(http.StatusUnprocessableEntity, CodeSchemaError,
			"Trade source is missing required columns",
			map[string]interface{}{
				"missing":   schemaErr.Missing,
				"available": schemaErr.Available,
			})
	}

	var parseErr *trades.ParseError
	if stderrors.As(err, &parseErr) {
		return NewWithDetails(http.StatusUnprocessableEntity, CodeParseError,
			parseErr.Error(),
			map[string]string{"field": parseErr.Field, "value": parseErr.Value})
	}

	switch {
	case stderrors.Is(err, trades.ErrNotFound):
		return New(http.StatusNotFound, CodeSourceNotFound, err.Error())
	case stderrors.Is(err, trades.ErrEmptyData):
		return New(http.StatusUnprocessableEntity, CodeEmptyData, err.Error())
	}

	return ErrInternalServer
}
