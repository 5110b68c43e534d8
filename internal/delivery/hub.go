package delivery

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/preston-bernstein/footy-live-service/internal/logging"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait).
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
	sendBufferSize = 64
)

var (
	// ErrUnknownClient means no live connection is registered for the client id.
	ErrUnknownClient = errors.New("unknown client")
	// ErrSlowClient means the connection's outbound buffer is full.
	ErrSlowClient = errors.New("client send buffer full")
)

// Hub tracks live connections by client id.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]*Conn
	logger *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		conns:  make(map[string]*Conn),
		logger: logger,
	}
}

// Register adds c, replacing (and closing) any previous connection with the same id.
func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	prev := h.conns[c.ID]
	h.conns[c.ID] = c
	total := len(h.conns)
	h.mu.Unlock()

	if prev != nil && prev != c {
		prev.close()
	}
	logging.Info(h.logger, "client connected", slog.String(logging.FieldClient, c.ID), slog.Int(logging.FieldCount, total))
}

// Unregister removes c if it is still the registered connection for its id.
func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	current, ok := h.conns[c.ID]
	if ok && current == c {
		delete(h.conns, c.ID)
	}
	total := len(h.conns)
	h.mu.Unlock()

	c.close()
	if ok && current == c {
		logging.Info(h.logger, "client disconnected", slog.String(logging.FieldClient, c.ID), slog.Int(logging.FieldCount, total))
	}
}

// Send queues u for the connection registered under clientID.
func (h *Hub) Send(clientID string, u Update) error {
	h.mu.RLock()
	c, ok := h.conns[clientID]
	h.mu.RUnlock()
	if !ok {
		return ErrUnknownClient
	}
	if !c.TrySend(u) {
		return ErrSlowClient
	}
	return nil
}

// Connected reports whether a connection is registered for clientID.
func (h *Hub) Connected(clientID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.conns[clientID]
	return ok
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := h.conns
	h.conns = make(map[string]*Conn)
	h.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
}

// Conn is one websocket client.
type Conn struct {
	ID          string
	ConnectedAt time.Time

	ws   *websocket.Conn
	hub  *Hub
	send chan Update

	mu     sync.Mutex
	closed bool
}

// NewConn wraps ws for the given client id.
func NewConn(id string, ws *websocket.Conn, hub *Hub) *Conn {
	return &Conn{
		ID:          id,
		ConnectedAt: time.Now(),
		ws:          ws,
		hub:         hub,
		send:        make(chan Update, sendBufferSize),
	}
}

// TrySend queues u without blocking. It reports false when the buffer is full
// or the connection is closed.
func (c *Conn) TrySend(u Update) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- u:
		return true
	default:
		return false
	}
}

func (c *Conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump drains inbound frames so control messages are processed. Clients
// do not send commands over the socket; any payload is ignored.
func (c *Conn) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if ctx.Err() != nil {
			return
		}
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn(c.hub.logger, "client unexpected close", slog.String(logging.FieldClient, c.ID), "error", err)
			}
			return
		}
	}
}

// WritePump writes queued updates and keepalive pings to the socket.
func (c *Conn) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case u, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteJSON(u); err != nil {
				logging.Warn(c.hub.logger, "client write failed", slog.String(logging.FieldClient, c.ID), "error", err)
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
