package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sla-service/internal/logging"
	"sla-service/internal/models"
)

// MaxHubClients caps concurrent dashboard connections.
const MaxHubClients = 100

const writeWait = 5 * time.Second

// Hub pushes notifications to connected WebSocket dashboards.
type Hub struct {
	clients map[*websocket.Conn]bool
	mutex   sync.Mutex
	logger  *logging.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		logger:  logger,
	}
}

func (h *Hub) Name() string { return "websocket" }

// Add registers a connection. It reports false when the hub is full.
func (h *Hub) Add(conn *websocket.Conn) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if len(h.clients) >= MaxHubClients {
		h.logger.Warnf("Max WebSocket connections reached (%d)", MaxHubClients)
		return false
	}
	h.clients[conn] = true
	h.logger.Infof("Added WebSocket connection (total: %d)", len(h.clients))
	return true
}

// Remove unregisters and closes a connection.
func (h *Hub) Remove(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, exists := h.clients[conn]; exists {
		delete(h.clients, conn)
		_ = conn.Close()
		h.logger.Infof("Removed WebSocket connection (remaining: %d)", len(h.clients))
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Serve registers conn and blocks reading until the client goes away.
// Inbound messages are ignored.
func (h *Hub) Serve(conn *websocket.Conn) {
	if !h.Add(conn) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many connections"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	defer h.Remove(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Send writes n as JSON to every client. Broken connections are dropped;
// having no clients is not an error.
func (h *Hub) Send(ctx context.Context, n models.Notification) error {
	message, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn := range h.clients {
		_ = conn.SetWriteDeadline(deadline)
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Errorf("Failed to send WebSocket message: %v", err)
			delete(h.clients, conn)
			_ = conn.Close()
		}
	}
	return nil
}
