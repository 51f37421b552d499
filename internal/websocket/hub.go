package websocket

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gdpwaterfall/internal/infrastructure"
)

const (
	defaultPingPeriod = 54 * time.Second
	defaultPongWait   = 60 * time.Second
)

// Hub maintains the set of active clients and broadcasts messages to them.
// Only the run loop closes a client's send channel.
type Hub struct {
	clients map[*Client]struct{}

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	provider ChartProvider
	logger   *slog.Logger
	metrics  *infrastructure.ChartMetrics

	// unscoped logger clients derive their own component logger from
	baseLogger *slog.Logger

	// pings are sent every pingPeriod; a peer silent for pongWait is dropped
	pingPeriod time.Duration
	pongWait   time.Duration

	mu      sync.RWMutex
	running bool
	quit    chan struct{}
	done    chan struct{}

	totalConnections atomic.Int64
	messagesSent     atomic.Int64
	messagesDropped  atomic.Int64
}

// HubOption configures a Hub
type HubOption func(*Hub)

// WithKeepalive sets the ping period and pong timeout. pongWait must exceed
// pingPeriod.
func WithKeepalive(pingPeriod, pongWait time.Duration) HubOption {
	return func(h *Hub) {
		if pingPeriod > 0 && pongWait > pingPeriod {
			h.pingPeriod = pingPeriod
			h.pongWait = pongWait
		}
	}
}

// NewHub creates a hub answering selections from provider. metrics may be nil.
func NewHub(provider ChartProvider, logger *slog.Logger, metrics *infrastructure.ChartMetrics, opts ...HubOption) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	h := &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		provider:   provider,
		logger:     infrastructure.WithComponent(logger, "websocket.hub"),
		baseLogger: logger,
		metrics:    metrics,
		pingPeriod: defaultPingPeriod,
		pongWait:   defaultPongWait,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start starts the hub loop. Calling it again is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	select {
	case <-h.quit:
		return
	default:
	}
	h.running = true
	go h.run()
}

// Stop closes every client and waits for the hub loop to exit
func (h *Hub) Stop() {
	h.mu.Lock()
	select {
	case <-h.quit:
		h.mu.Unlock()
		return
	default:
	}
	close(h.quit)
	wasRunning := h.running
	h.running = false
	h.mu.Unlock()

	if wasRunning {
		<-h.done
	}
}

func (h *Hub) run() {
	defer close(h.done)
	ctx := context.Background()

	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			n := len(h.clients)
			for client := range h.clients {
				client.close()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.metrics.RecordWebSocketClients(ctx, -int64(n))
			h.logger.Info("Hub shutting down", slog.Int("closed_clients", n))
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			h.totalConnections.Add(1)
			h.metrics.RecordWebSocketClients(ctx, 1)

			h.logger.InfoContext(client.ctx, "Client registered",
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr),
				slog.Int("total_clients", count))

			msg, err := encode(TypeConnection, map[string]interface{}{
				"status":    "connected",
				"client_id": client.id,
			}, "", client.traceID)
			if err == nil && !client.enqueue(msg) {
				h.logger.WarnContext(client.ctx, "Failed to send connection message, client buffer full",
					slog.String("client_id", client.id))
			}

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				client.close()
			}
			count := len(h.clients)
			h.mu.Unlock()
			if ok {
				h.metrics.RecordWebSocketClients(ctx, -1)
				h.logger.InfoContext(client.ctx, "Client unregistered",
					slog.String("client_id", client.id),
					slog.Int("total_clients", count))
			}

		case message := <-h.broadcast:
			h.mu.Lock()
			dropped := 0
			for client := range h.clients {
				if client.enqueue(message) {
					h.messagesSent.Add(1)
					continue
				}
				// A client that cannot keep up is disconnected
				dropped++
				client.close()
				delete(h.clients, client)
				h.logger.WarnContext(client.ctx, "Client send buffer full, disconnecting",
					slog.String("client_id", client.id))
			}
			recipients := len(h.clients)
			h.mu.Unlock()

			if dropped > 0 {
				h.messagesDropped.Add(int64(dropped))
				h.metrics.RecordWebSocketClients(ctx, -int64(dropped))
			}
			h.logger.Debug("Broadcast delivered",
				slog.Int("recipients", recipients),
				slog.Int("dropped", dropped),
				slog.Int("message_size", len(message)))
		}
	}
}

// Register adds a client. After Stop the client is closed instead.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		client.close()
	}
}

// Unregister removes a client and closes its send channel
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Broadcast sends a typed message to every connected client. It returns
// without sending once the hub is stopped.
func (h *Hub) Broadcast(msgType string, data interface{}) {
	msg, err := encode(msgType, data, "", "")
	if err != nil {
		h.logger.Error("Error marshaling broadcast",
			slog.String("type", msgType),
			slog.String("error", err.Error()))
		return
	}
	select {
	case h.broadcast <- msg:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns the hub counters
func (h *Hub) Stats() map[string]int64 {
	return map[string]int64{
		"active_clients":    int64(h.ClientCount()),
		"total_connections": h.totalConnections.Load(),
		"messages_sent":     h.messagesSent.Load(),
		"messages_dropped":  h.messagesDropped.Load(),
	}
}
