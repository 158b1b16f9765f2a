package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"creditpulse/internal/infrastructure"
	"creditpulse/pkg/contracts/events"
)

const (
	writeWait       = 10 * time.Second
	defaultPongWait = 60 * time.Second

	// Inbound frames are heartbeats only.
	maxMessageSize = 512

	sendBufferSize = 256
)

// Client owns one dashboard connection. The hub queues events on send;
// WritePump drains them and ReadPump watches the connection for liveness.
type Client struct {
	hub  *Hub
	conn Connection
	send chan []byte

	id          string
	remoteAddr  string
	connectedAt time.Time

	// ctx carries the trace ID of the upgrade request for log correlation
	ctx    context.Context
	logger *slog.Logger
}

// NewClient wraps a connection for the hub. traceID may be empty.
func NewClient(hub *Hub, conn Connection, traceID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	id := uuid.NewString()
	ctx := context.Background()
	if traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, traceID)
	}

	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		id:          id,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		ctx:         ctx,
		logger: logger.With(
			slog.String("component", "websocket.client"),
			slog.String("client_id", id),
		),
	}
}

func (c *Client) ID() string {
	return c.id
}

// ReadPump runs until the connection fails, then unregisters the client.
// Every pong or heartbeat extends the read deadline; other frames are
// counted and dropped.
func (c *Client) ReadPump() {
	var received, ignored int
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
		c.logger.InfoContext(c.ctx, "WebSocket client disconnected",
			slog.Duration("connection_duration", time.Since(c.connectedAt)),
			slog.Int("messages_received", received),
			slog.Int("messages_ignored", ignored))
	}()

	pongWait := c.hub.pongWait
	extend := func() { c.conn.SetReadDeadline(time.Now().Add(pongWait)) }

	c.conn.SetReadLimit(maxMessageSize)
	extend()
	c.conn.SetPongHandler(func(string) error { extend(); return nil })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.WarnContext(c.ctx, "Unexpected WebSocket close", slog.String("error", err.Error()))
			}
			return
		}
		received++

		var msg events.BaseMessage
		if json.Unmarshal(data, &msg) != nil || msg.Type != events.MessageTypeHeartbeat {
			ignored++
			continue
		}
		extend()
	}
}

// WritePump sends queued events and pings until send is closed or a write
// fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.hub.pingPeriod)
	sent := 0
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.DebugContext(c.ctx, "WebSocket write pump stopped", slog.Int("messages_sent", sent))
	}()

	write := func(messageType int, data []byte) error {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		return c.conn.WriteMessage(messageType, data)
	}

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// unregistered by the hub
				write(websocket.CloseMessage, []byte{})
				return
			}
			if err := write(websocket.TextMessage, message); err != nil {
				c.logger.WarnContext(c.ctx, "WebSocket write failed", slog.String("error", err.Error()))
				return
			}
			sent++

		case <-ticker.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.ctx, "WebSocket ping failed", slog.String("error", err.Error()))
				return
			}
		}
	}
}
