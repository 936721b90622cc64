package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"travelboard/internal/config"
	"travelboard/internal/infrastructure"
	"travelboard/internal/middleware"
	ws "travelboard/internal/websocket"
)

// WebSocketHandler upgrades /ws requests and attaches them to the hub
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
	base     *slog.Logger
}

// NewWebSocketHandler creates the handler. Cross-origin upgrades are checked
// against allowedOrigins; requests without an Origin header are accepted.
func NewWebSocketHandler(hub *ws.Hub, cfg config.WebSocketConfig, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:    hub,
		logger: infrastructure.WithComponent(logger, "websocket_handler"),
		base:   logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || middleware.OriginAllowed(allowedOrigins, origin) {
				return true
			}
			h.logger.WarnContext(r.Context(), "websocket origin not allowed",
				slog.String("origin", origin),
				slog.Any("allowed_origins", allowedOrigins))
			return false
		},
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.logger.WarnContext(r.Context(), "websocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()))
			http.Error(w, http.StatusText(status), status)
		},
	}
	return h
}

// ServeHTTP handles GET /ws
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already replied
		return
	}
	traceID := infrastructure.GetTraceID(r.Context())
	if ws.Serve(h.hub, ws.Wrap(conn), traceID, h.base) == nil {
		h.logger.DebugContext(r.Context(), "hub stopped, websocket closed")
	}
}
