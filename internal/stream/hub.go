// Package stream pushes bus events to websocket subscribers, giving
// dashboards a live view of the pipeline without polling.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"launch-radar/internal/bus"
)

const writeTimeout = 5 * time.Second

// Frame is the wire shape of one event pushed to subscribers.
type Frame struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Hub tracks websocket subscribers and broadcasts frames to them. Clients
// that fail a write are dropped; there is no per-client buffering.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	// serializes Broadcast: a connection tolerates only one writer
	writeMu sync.Mutex

	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHub creates a Hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeHTTP upgrades the request and registers the connection. The read
// loop exists only to detect client close.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", zap.Int("clients", n))

	go h.readLoop(conn)
}

func (h *Hub) readLoop(conn *websocket.Conn) {
	defer h.drop(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if ok {
		conn.Close()
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends one frame to every subscriber, dropping any client
// whose write fails.
func (h *Hub) Broadcast(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		h.logger.Warn("frame marshal failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("websocket write failed, dropping client", zap.Error(err))
			h.drop(c)
		}
	}
}

// Bind forwards every bus event to the hub's subscribers.
func (h *Hub) Bind(b *bus.Bus) {
	b.OnAll(func(evt bus.Event) {
		h.Broadcast(Frame{
			ID:        evt.ID,
			Type:      string(evt.Type),
			Timestamp: evt.Timestamp,
			Payload:   evt.Payload,
		})
	})
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.clients = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()

	for _, c := range conns {
		c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeTimeout))
		c.Close()
	}
}
