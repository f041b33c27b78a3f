// ABOUTME: Websocket client connection with read/write pumps and keepalive
// ABOUTME: Implements relay.Session delivery with a drop-on-full send buffer

package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chatsapp/relay/internal/auth"
	"github.com/chatsapp/relay/internal/relay"
)

// sendBufferSize is the per-connection outbound queue. Events are dropped
// for a consumer that falls this far behind.
const sendBufferSize = 256

// inboundEnvelope mirrors the wire frame before payload-specific decoding.
type inboundEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Client is one authenticated websocket connection. It implements
// relay.Session; the relay delivers events through the buffered send
// channel drained by the write pump.
type Client struct {
	conn   *websocket.Conn
	claims *auth.Claims
	relay  *relay.Relay
	logger *slog.Logger

	send chan []byte
	done chan struct{}
	once sync.Once

	maxMessageSize int64
	writeTimeout   time.Duration
	pongTimeout    time.Duration
}

func newClient(conn *websocket.Conn, claims *auth.Claims, r *relay.Relay, opts Options, logger *slog.Logger) *Client {
	return &Client{
		conn:           conn,
		claims:         claims,
		relay:          r,
		logger:         logger.With("user", claims.Username),
		send:           make(chan []byte, sendBufferSize),
		done:           make(chan struct{}),
		maxMessageSize: opts.MaxMessageSize,
		writeTimeout:   opts.WriteTimeout,
		pongTimeout:    opts.PongTimeout,
	}
}

// Claims returns the verified token claims for this connection.
func (c *Client) Claims() *auth.Claims {
	return c.claims
}

// Deliver enqueues an outbound event without blocking. When the send
// buffer is full the event is dropped; a consumer that slow is about to
// miss its ping deadline anyway.
func (c *Client) Deliver(event relay.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		c.logger.Error("failed to encode event", "event", event.Name, "error", err)
		return
	}

	select {
	case c.send <- data:
	case <-c.done:
	default:
		c.logger.Warn("send buffer full, dropping event", "event", event.Name)
	}
}

// close shuts the connection down exactly once. Safe from both pumps.
func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// readPump consumes inbound frames until the connection fails or closes,
// then unbinds the session. In-flight handler calls complete normally;
// their fan-out simply finds the registry already vacated.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.relay.HandleDisconnect(c)
		c.close()
	}()

	c.conn.SetReadLimit(c.maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongTimeout))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		var env inboundEnvelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
			c.Deliver(relay.ErrorEvent("malformed event envelope"))
			continue
		}
		if len(env.Data) == 0 {
			env.Data = json.RawMessage("{}")
		}

		c.relay.Dispatch(ctx, c, env.Event, env.Data)
	}
}

// writePump drains the send buffer and keeps the connection alive with
// pings. It owns all writes to the underlying connection.
func (c *Client) writePump() {
	pingInterval := c.pongTimeout * 9 / 10
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

var _ relay.Session = (*Client)(nil)
