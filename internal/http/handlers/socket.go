package handlers

import (
	"log/slog"
	nethttp "net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/preston-bernstein/footy-live-service/internal/delivery"
	"github.com/preston-bernstein/footy-live-service/internal/logging"
)

// HeaderClientID carries the connection id back to the client on upgrade.
const HeaderClientID = "X-Client-ID"

type upgrader interface {
	Upgrade(w nethttp.ResponseWriter, r *nethttp.Request, header nethttp.Header) (*websocket.Conn, error)
}

func newUpgrader() upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// Origins are enforced by the CORS layer.
		CheckOrigin: func(*nethttp.Request) bool { return true },
	}
}

// Socket upgrades to a websocket and registers the connection with the hub.
// Clients reconnect with the same client_id to keep their subscriptions; a
// missing id is assigned.
func (h *Handler) Socket(w nethttp.ResponseWriter, r *nethttp.Request) {
	if h.hub == nil {
		writeError(w, r, nethttp.StatusServiceUnavailable, "live connections disabled", h.logger)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("client_id"))
	if id == "" {
		id = uuid.NewString()
	}
	if client, err := delivery.NewClient(id, ""); err != nil || client.IsWebhook() {
		writeError(w, r, nethttp.StatusBadRequest, "invalid client_id", h.logger)
		return
	}

	header := nethttp.Header{}
	header.Set(HeaderClientID, id)
	ws, err := h.upgrader.Upgrade(w, r, header)
	if err != nil {
		// The upgrader has already replied.
		logging.Warn(loggerFromContext(r, h.logger), "websocket upgrade failed", slog.String(logging.FieldClient, id), "error", err)
		return
	}

	conn := delivery.NewConn(id, ws, h.hub)
	h.hub.Register(conn)

	ctx := r.Context()
	go conn.WritePump(ctx)
	conn.ReadPump(ctx)
}
