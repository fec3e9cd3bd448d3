// Package websocket pushes dashboard refresh events to connected clients
// so the UI can re-request statistics after a recomputation.
package websocket

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message is one event pushed to dashboard clients.
type Message struct {
	Event     string      `json:"event"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub fans broadcast events out to all connected clients. Slow clients
// are disconnected rather than blocking the broadcast loop.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]chan Message
}

// NewHub creates a websocket hub.
func NewHub(logger *slog.Logger, checkOrigin func(*http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		logger: logger.With(slog.String("component", "websocket_hub")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		clients: make(map[*websocket.Conn]chan Message),
	}
}

// ServeHTTP upgrades the connection and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr),
		)
		return
	}

	send := make(chan Message, 16)
	h.mu.Lock()
	h.clients[conn] = send
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.InfoContext(r.Context(), "websocket client connected",
		slog.Int("total_clients", count))

	go h.writeLoop(conn, send)
	go h.readLoop(conn)
}

// Broadcast queues an event for every connected client.
func (h *Hub) Broadcast(event string, payload interface{}) {
	msg := Message{Event: event, Data: payload, Timestamp: time.Now().UTC()}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn, send := range h.clients {
		select {
		case send <- msg:
		default:
			// Buffer full: the client is not keeping up.
			h.logger.Warn("dropping slow websocket client")
			go h.remove(conn)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()
	for _, conn := range conns {
		h.remove(conn)
	}
}

func (h *Hub) writeLoop(conn *websocket.Conn, send <-chan Message) {
	for msg := range send {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(msg); err != nil {
			h.remove(conn)
			return
		}
	}
}

func (h *Hub) readLoop(conn *websocket.Conn) {
	// Clients never send meaningful payloads; the read loop only detects
	// disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.remove(conn)
			return
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	send, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
		close(send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		conn.Close()
		h.logger.Info("websocket client disconnected",
			slog.Int("total_clients", count))
	}
}
