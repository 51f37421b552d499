package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"gdpwaterfall/internal/infrastructure"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 1024

	// Time allowed to answer one selection
	requestTimeout = 10 * time.Second

	sendBuffer = 64
)

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub  *Hub
	conn Connection

	mu     sync.Mutex
	send   chan []byte
	closed bool

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	// ctx carries the trace ID into logs and provider calls
	ctx    context.Context
	logger *slog.Logger
}

// gorillaConn adapts *websocket.Conn to Connection
type gorillaConn struct {
	*websocket.Conn
}

func (c gorillaConn) RemoteAddr() string {
	if addr := c.Conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// NewClient wraps an upgraded connection. traceID ties the client's logs to
// the upgrade request.
func NewClient(hub *Hub, conn *websocket.Conn, traceID string) *Client {
	return NewClientWithConnection(hub, gorillaConn{conn}, traceID)
}

// NewClientWithConnection creates a client over any Connection
func NewClientWithConnection(hub *Hub, conn Connection, traceID string) *Client {
	id := uuid.New().String()
	if traceID == "" {
		traceID = id
	}
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		id:          id,
		traceID:     traceID,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		ctx:         infrastructure.WithTraceID(context.Background(), traceID),
		logger: infrastructure.WithComponent(hub.baseLogger, "websocket.client").With(
			slog.String("client_id", id),
		),
	}
}

// ID returns the client identifier
func (c *Client) ID() string {
	return c.id
}

// enqueue queues msg without blocking. It reports false when the client is
// closed or its buffer is full.
func (c *Client) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump reads client commands until the connection fails
func (c *Client) ReadPump() {
	var received int
	defer func() {
		c.logger.InfoContext(c.ctx, "WebSocket client disconnected",
			slog.Duration("connection_duration", time.Since(c.connectedAt)),
			slog.Int("messages_received", received))
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.hub.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.hub.pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.WarnContext(c.ctx, "Unexpected WebSocket close error",
					slog.String("error", err.Error()))
			}
			return
		}
		received++
		c.handle(message)
	}
}

// handle answers one client command
func (c *Client) handle(raw []byte) {
	var cmd ClientMessage
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.reply(TypeError, "", ErrorData{Code: CodeInvalidMessage, Message: "message is not valid JSON"})
		return
	}

	switch cmd.Type {
	case TypeHeartbeat:
		c.logger.DebugContext(c.ctx, "Heartbeat received")

	case TypeSelect:
		country := strings.TrimSpace(cmd.Country)
		if country == "" {
			c.reply(TypeError, cmd.RequestID, ErrorData{Code: CodeInvalidMessage, Message: "country is required"})
			return
		}
		ctx, cancel := context.WithTimeout(c.ctx, requestTimeout)
		defer cancel()

		chart, err := c.hub.provider.Waterfall(ctx, country)
		if err != nil {
			c.logReplyError(err, country)
			c.reply(TypeError, cmd.RequestID, errorData(err, country))
			return
		}
		c.reply(TypeChart, cmd.RequestID, chart)

	case TypeCountries:
		ctx, cancel := context.WithTimeout(c.ctx, requestTimeout)
		defer cancel()

		list, err := c.hub.provider.Countries(ctx)
		if err != nil {
			c.logReplyError(err, "")
			c.reply(TypeError, cmd.RequestID, errorData(err, ""))
			return
		}
		c.reply(TypeCountries, cmd.RequestID, list)

	default:
		c.reply(TypeError, cmd.RequestID, ErrorData{Code: CodeUnknownType, Message: "unknown message type " + cmd.Type})
	}
}

func (c *Client) reply(msgType, requestID string, data interface{}) {
	msg, err := encode(msgType, data, requestID, c.traceID)
	if err != nil {
		c.logger.ErrorContext(c.ctx, "Error marshaling reply",
			slog.String("type", msgType),
			slog.String("error", err.Error()))
		return
	}
	if !c.enqueue(msg) {
		c.hub.messagesDropped.Add(1)
		c.logger.WarnContext(c.ctx, "Reply dropped", slog.String("type", msgType))
		return
	}
	c.hub.messagesSent.Add(1)
}

func (c *Client) logReplyError(err error, country string) {
	level := slog.LevelWarn
	if errors.Is(err, context.DeadlineExceeded) {
		level = slog.LevelError
	}
	c.logger.Log(c.ctx, level, "Selection failed",
		slog.String("country", country),
		slog.String("error", err.Error()))
}

// WritePump writes queued messages and pings until the send channel closes
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.hub.pingPeriod)
	var sent int
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.DebugContext(c.ctx, "WebSocket write pump stopped", slog.Int("messages_sent", sent))
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.WarnContext(c.ctx, "Error writing message to WebSocket",
					slog.String("error", err.Error()))
				return
			}
			sent++

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.ctx, "Failed to send ping message",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}
