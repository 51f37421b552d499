package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	apierrors "gdpwaterfall/internal/errors"
	"gdpwaterfall/internal/middleware"
)

// maxClientLogBytes bounds one forwarded log entry
const maxClientLogBytes = 16 << 10

// ClientLogHandler forwards log lines from the chart front end into the
// service log, so rendering problems show up next to the API requests
type ClientLogHandler struct {
	logger       *slog.Logger
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
}

// NewClientLogHandler creates a new client log handler
func NewClientLogHandler(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ClientLogHandler {
	return &ClientLogHandler{
		logger:       logger.With(slog.String("handler", "client_log")),
		validator:    middleware.NewValidator(),
		errorHandler: errorHandler,
	}
}

// LogRequest represents a client log entry
type LogRequest struct {
	Level   string                 `json:"level" validate:"omitempty,oneof=debug info warn error"`
	Message string                 `json:"message" validate:"required,max=2000"`
	Country string                 `json:"country,omitempty" validate:"max=128"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Source  string                 `json:"source,omitempty" validate:"max=256"`
}

// Handle handles POST /api/client-log
func (h *ClientLogHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req LogRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxClientLogBytes))
	if err := dec.Decode(&req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			apierrors.ErrInvalidRequest.StatusCode,
			apierrors.ErrInvalidRequest.ErrorCode,
			apierrors.ErrInvalidRequest.Message,
			err.Error(),
		))
		return
	}
	req.Level = strings.ToLower(req.Level)
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	attrs := []slog.Attr{slog.String("client_source", req.Source)}
	if req.Country != "" {
		attrs = append(attrs, slog.String("country", req.Country))
	}
	if req.Data != nil {
		attrs = append(attrs, slog.Any("data", req.Data))
	}

	h.logger.LogAttrs(r.Context(), parseClientLevel(req.Level), req.Message, attrs...)

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]interface{}{"success": true})
}

func parseClientLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
