package websocket

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	apierrors "gdpwaterfall/internal/errors"
	"gdpwaterfall/internal/infrastructure"
	"gdpwaterfall/internal/middleware"
)

// Handler upgrades GET /ws requests and attaches the connection to the hub
type Handler struct {
	hub            *Hub
	allowedOrigins []string
	upgrader       websocket.Upgrader
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
}

// HandlerOptions configures the upgrade
type HandlerOptions struct {
	// AllowedOrigins lists browser origins; "*" allows any origin
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
}

// NewHandler creates the upgrade handler
func NewHandler(hub *Hub, opts HandlerOptions, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *Handler {
	h := &Handler{
		hub:            hub,
		allowedOrigins: opts.AllowedOrigins,
		logger:         infrastructure.WithComponent(logger, "websocket.handler"),
		errorHandler:   errorHandler,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  opts.ReadBufferSize,
		WriteBufferSize: opts.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
		Error:           h.upgradeError,
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.InfoContext(ctx, "WebSocket upgrade request",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("origin", r.Header.Get("Origin")))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the Error callback has already answered
		return
	}

	client := NewClient(h.hub, conn, middleware.GetRequestID(ctx))
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

// checkOrigin allows requests without an Origin header (non-browser
// clients) and origins listed in the configuration
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	h.logger.WarnContext(r.Context(), "WebSocket origin not allowed",
		slog.String("origin", origin),
		slog.Any("allowed_origins", h.allowedOrigins))
	return false
}

func (h *Handler) upgradeError(w http.ResponseWriter, r *http.Request, status int, reason error) {
	h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
		status,
		apierrors.ErrWebSocketUpgrade.ErrorCode,
		apierrors.ErrWebSocketUpgrade.Message,
		reason.Error(),
	))
}
