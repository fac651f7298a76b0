package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Client is one websocket connection, identified by an opaque handle. Inbound
// frames are handed to onInbound; onClose fires once when the read side ends,
// with the transport error as cause (nil for a clean close).
type Client struct {
	ctx       context.Context
	conn      *websocket.Conn
	send      chan []byte
	handle    string
	onInbound func(Inbound)
	onClose   func(cause error)

	mu     sync.Mutex
	closed bool
}

func NewClient(ctx context.Context, conn *websocket.Conn, handle string, onInbound func(Inbound), onClose func(error)) *Client {
	return &Client{
		ctx:       ctx,
		conn:      conn,
		send:      make(chan []byte, 256),
		handle:    handle,
		onInbound: onInbound,
		onClose:   onClose,
	}
}

func (c *Client) Handle() string {
	return c.handle
}

func (c *Client) ReadPump() {
	var cause error
	defer func() {
		if c.onClose != nil {
			c.onClose(cause)
		}
		if err := c.conn.Close(); err != nil {
			slog.Debug("failed to close websocket connection", "handle", c.handle, "error", err)
		}
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			_, message, err := c.conn.ReadMessage()
			if err != nil {
				if c.ctx.Err() != nil {
					return
				}
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
					slog.Error("websocket error", "handle", c.handle, "error", err)
					cause = err
				}
				return
			}

			var inbound Inbound
			if err := json.Unmarshal(message, &inbound); err != nil {
				slog.Warn("invalid websocket payload", "handle", c.handle, "error", err)
				continue
			}

			if c.onInbound != nil {
				c.onInbound(inbound)
			}
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		if err := c.conn.Close(); err != nil {
			slog.Debug("failed to close websocket connection", "handle", c.handle, "error", err)
		}
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case message, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		}
	}
}

// Send queues a frame without blocking. Delivery is fire-and-forget; a full
// queue or a closed client yields ErrDispatch.
func (c *Client) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrDispatch
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return ErrDispatch
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}
