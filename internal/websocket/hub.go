package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"travelboard/internal/infrastructure"
)

// Message types sent by the hub
const (
	TypeConnection = "connection"
)

// Message is the envelope of every frame sent to clients
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients map[*Client]struct{}
	mu      sync.RWMutex

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	pingPeriod time.Duration
	pongWait   time.Duration

	logger  *slog.Logger
	metrics *infrastructure.TravelMetrics
}

// NewHub creates a hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *infrastructure.TravelMetrics) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		pingPeriod: defaultPingPeriod,
		pongWait:   defaultPongWait,
		logger:     infrastructure.WithComponent(logger, "websocket.hub"),
		metrics:    metrics,
	}
}

// SetKeepalive overrides the ping period and pong timeout of clients
// created afterwards. ping must be shorter than pong; invalid values are
// ignored.
func (h *Hub) SetKeepalive(ping, pong time.Duration) {
	if ping <= 0 || pong <= 0 || ping >= pong {
		return
	}
	h.pingPeriod, h.pongWait = ping, pong
}

// Run serves registrations and broadcasts until ctx is done, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			h.connectionsChanged(client, 1)

			h.logger.InfoContext(client.ctx(), "client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			if msg, err := encode(TypeConnection, map[string]string{
				"status":    "connected",
				"client_id": client.id,
			}, client.traceID); err == nil {
				client.trySend(msg)
			}

		case client := <-h.unregister:
			h.remove(client, "client unregistered")

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for c := range h.clients {
				clients = append(clients, c)
			}
			h.mu.RUnlock()

			for _, c := range clients {
				if !c.trySend(message) {
					h.remove(c, "client send buffer full, disconnecting")
				}
			}
			h.logger.Debug("broadcast delivered",
				slog.Int("client_count", len(clients)),
				slog.Int("message_size", len(message)))
		}
	}
}

// Broadcast queues an event for every client. It never blocks: when the
// queue is full or the hub has stopped the event is dropped.
func (h *Hub) Broadcast(eventType string, data interface{}) {
	msg, err := encode(eventType, data, "")
	if err != nil {
		h.logger.Error("failed to encode broadcast",
			slog.String("type", eventType),
			slog.String("error", err.Error()))
		return
	}
	select {
	case <-h.done:
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast queue full, dropping event", slog.String("type", eventType))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) remove(c *Client, msg string) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	count := len(h.clients)
	h.mu.Unlock()
	h.connectionsChanged(c, -1)

	h.logger.InfoContext(c.ctx(), msg,
		slog.Int("total_clients", count),
		slog.String("client_id", c.id),
		slog.Duration("connection_duration", time.Since(c.connectedAt)))
}

func (h *Hub) shutdown() {
	close(h.done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
		h.connectionsChanged(c, -1)
	}
}

func (h *Hub) connectionsChanged(c *Client, delta int64) {
	if h.metrics != nil {
		h.metrics.WebSocketConnections.Add(c.ctx(), delta)
	}
}

func encode(eventType string, data interface{}, traceID string) ([]byte, error) {
	return json.Marshal(Message{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
		TraceID:   traceID,
	})
}
