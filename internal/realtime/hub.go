package realtime

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/josephowusu/bizcore/internal/tenant"
	"github.com/josephowusu/bizcore/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 16

	defaultBufferSize = 64
)

// Event is a JSON payload pushed to a connected recipient. Delivery is
// fire-and-forget: a disconnected recipient simply misses the push and picks
// the notification up from storage on reconnect.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type subscriberKey struct {
	schema tenant.Schema
	userID string
}

// Hub is the live-channel registry: the process-wide map of currently
// reachable recipients, keyed by tenant and user. Connections from different
// tenants never share a key, so a push can never cross schemas.
type Hub struct {
	mu       sync.RWMutex
	clients  map[subscriberKey]map[*connection]struct{}
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHub constructs a live-channel hub.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients: make(map[subscriberKey]map[*connection]struct{}),
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // origin policy is enforced by the fronting proxy
			},
		},
	}
}

// Serve upgrades the HTTP connection to a WebSocket and registers the
// authenticated user as reachable within their tenant.
func (h *Hub) Serve(schema tenant.Schema, userID string, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &connection{
		hub:    h,
		socket: conn,
		key:    subscriberKey{schema: schema, userID: userID},
		send:   make(chan Event, defaultBufferSize),
	}

	h.register(client)

	go client.writeLoop()
	client.readLoop()
}

// PushToUser delivers an event to every connection the user has within the
// tenant. The target set is snapshotted under the read lock and written to
// afterwards, so a concurrent connect or disconnect cannot corrupt iteration.
func (h *Hub) PushToUser(schema tenant.Schema, userID string, event Event) {
	if userID == "" {
		return
	}

	h.mu.RLock()
	targets := make([]*connection, 0, len(h.clients[subscriberKey{schema: schema, userID: userID}]))
	for client := range h.clients[subscriberKey{schema: schema, userID: userID}] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		sent, open := client.trySend(event)
		switch {
		case sent:
			metrics.NotificationPushes.Inc()
		case open:
			h.log.Warn("dropping backpressure client",
				zap.String("schema", schema.String()),
				zap.String("user_id", userID),
			)
			client.close()
		default:
			// The disconnect raced the snapshot; the recipient picks the
			// notification up from storage on reconnect.
		}
	}
}

// Connected reports whether the user currently has at least one attached
// connection within the tenant.
func (h *Hub) Connected(schema tenant.Schema, userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[subscriberKey{schema: schema, userID: userID}]) > 0
}

func (h *Hub) register(client *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.key] == nil {
		h.clients[client.key] = make(map[*connection]struct{})
	}
	h.clients[client.key][client] = struct{}{}
	metrics.LiveConnections.Inc()
}

func (h *Hub) unregister(client *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients := h.clients[client.key]; clients != nil {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			metrics.LiveConnections.Dec()
		}
		if len(clients) == 0 {
			delete(h.clients, client.key)
		}
	}
}

type connection struct {
	hub    *Hub
	socket *websocket.Conn
	key    subscriberKey
	send   chan Event

	mu     sync.Mutex
	closed bool
}

// trySend queues the event without blocking. It reports whether the event was
// queued and whether the connection is still open; the mutex pairs with close
// so a send can never hit a closed channel.
func (c *connection) trySend(event Event) (sent, open bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, false
	}
	select {
	case c.send <- event:
		return true, true
	default:
		return false, true
	}
}

func (c *connection) readLoop() {
	defer c.close()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// The live channel is push-only; inbound frames only keep the
		// connection alive.
		if _, _, err := c.socket.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *connection) writeLoop() {
	defer c.close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	c.hub.unregister(c)
	_ = c.socket.Close()
}
