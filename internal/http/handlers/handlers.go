package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	nethttp "net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/preston-bernstein/footy-live-service/internal/delivery"
	"github.com/preston-bernstein/footy-live-service/internal/logging"
	"github.com/preston-bernstein/footy-live-service/internal/poller"
	"github.com/preston-bernstein/footy-live-service/internal/subscription"
)

const maxBodyBytes = 1 << 16

// Subscriptions is the subscribe/unsubscribe/list surface the handlers drive.
type Subscriptions interface {
	Subscribe(ctx context.Context, clientID, group, query string) (subscription.Result, error)
	Unsubscribe(ctx context.Context, clientID, group, eventID string) error
	List(ctx context.Context, clientID, group string) ([]subscription.Listing, error)
}

// Handler wires HTTP routes to the subscription manager and the connection hub.
type Handler struct {
	subs     Subscriptions
	hub      *delivery.Hub
	logger   *slog.Logger
	statusFn func() poller.Status
	upgrader upgrader
}

// NewHandler constructs a Handler. hub and statusFn may be nil.
func NewHandler(subs Subscriptions, hub *delivery.Hub, logger *slog.Logger, statusFn func() poller.Status) *Handler {
	return &Handler{
		subs:     subs,
		hub:      hub,
		logger:   logger,
		statusFn: statusFn,
		upgrader: newUpgrader(),
	}
}

// SubscribeRequest is the body of POST /subscriptions.
type SubscribeRequest struct {
	Client string `json:"client"`
	Group  string `json:"group"`
	Query  string `json:"query"`
}

// ListResponse is the body of GET /subscriptions.
type ListResponse struct {
	Subscriptions []subscription.Listing `json:"subscriptions"`
}

// Health reports the service health.
func (h *Handler) Health(w nethttp.ResponseWriter, r *nethttp.Request) {
	if err := r.Context().Err(); err != nil {
		writeError(w, r, nethttp.StatusServiceUnavailable, "shutting down", h.logger)
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// Ready reports readiness for traffic (e.g., for Kubernetes probes).
func (h *Handler) Ready(w nethttp.ResponseWriter, r *nethttp.Request) {
	if h.statusFn == nil {
		writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ready"}, h.logger)
		return
	}
	status := h.statusFn()
	if status.IsReady() {
		writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ready"}, h.logger)
		return
	}
	msg := status.LastError
	if msg == "" {
		msg = "not ready"
	}
	writeError(w, r, nethttp.StatusServiceUnavailable, msg, h.logger)
}

// Subscribe resolves the query and follows the matching game.
func (h *Handler) Subscribe(w nethttp.ResponseWriter, r *nethttp.Request) {
	var req SubscribeRequest
	dec := json.NewDecoder(nethttp.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, nethttp.StatusBadRequest, "invalid request body", h.logger)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, r, nethttp.StatusBadRequest, "query is required", h.logger)
		return
	}

	logger := loggerFromContext(r, h.logger)
	res, err := h.subs.Subscribe(r.Context(), req.Client, req.Group, req.Query)
	switch {
	case err == nil:
		logging.Info(logger, "subscribed",
			logging.FieldEventID, res.SubID,
			logging.FieldClient, req.Client,
		)
		writeJSON(w, nethttp.StatusOK, res, h.logger)
	case subscription.IsNotFound(err):
		// The filler reply still goes back to the caller.
		writeJSON(w, nethttp.StatusNotFound, res, h.logger)
	case errors.Is(err, subscription.ErrGameNotActive):
		writeError(w, r, nethttp.StatusConflict, err.Error(), h.logger)
	case errors.Is(err, delivery.ErrInvalidClient):
		writeError(w, r, nethttp.StatusBadRequest, err.Error(), h.logger)
	default:
		logging.Error(logger, "subscribe failed", err, logging.FieldClient, req.Client)
		writeError(w, r, nethttp.StatusBadGateway, "live score feed unavailable", h.logger)
	}
}

// Unsubscribe stops following the game named in the path.
func (h *Handler) Unsubscribe(w nethttp.ResponseWriter, r *nethttp.Request) {
	eventID := chi.URLParam(r, "id")
	if eventID == "" {
		writeError(w, r, nethttp.StatusBadRequest, "invalid subscription id", h.logger)
		return
	}
	q := r.URL.Query()
	err := h.subs.Unsubscribe(r.Context(), q.Get("client"), q.Get("group"), eventID)
	switch {
	case err == nil:
		w.WriteHeader(nethttp.StatusNoContent)
	case errors.Is(err, subscription.ErrNotSubscribed):
		writeError(w, r, nethttp.StatusNotFound, err.Error(), h.logger)
	case errors.Is(err, delivery.ErrInvalidClient):
		writeError(w, r, nethttp.StatusBadRequest, err.Error(), h.logger)
	default:
		logging.Error(loggerFromContext(r, h.logger), "unsubscribe failed", err, logging.FieldEventID, eventID)
		writeError(w, r, nethttp.StatusInternalServerError, "unsubscribe failed", h.logger)
	}
}

// List returns the games the client follows.
func (h *Handler) List(w nethttp.ResponseWriter, r *nethttp.Request) {
	q := r.URL.Query()
	list, err := h.subs.List(r.Context(), q.Get("client"), q.Get("group"))
	switch {
	case err == nil:
		if list == nil {
			list = []subscription.Listing{}
		}
		writeJSON(w, nethttp.StatusOK, ListResponse{Subscriptions: list}, h.logger)
	case errors.Is(err, delivery.ErrInvalidClient):
		writeError(w, r, nethttp.StatusBadRequest, err.Error(), h.logger)
	default:
		logging.Error(loggerFromContext(r, h.logger), "list subscriptions failed", err)
		writeError(w, r, nethttp.StatusInternalServerError, "list failed", h.logger)
	}
}
