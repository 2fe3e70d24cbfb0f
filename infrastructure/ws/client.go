// Package ws carries room traffic over persistent websocket connections.
// One Client per connection owns the socket: a read loop decodes inbound
// envelopes and a write loop drains the outbound queue.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"babelroom/domain/event"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxInboundBytes = 64 << 10
)

// envelope is the wire frame in both directions: an event name plus an
// event-specific payload.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type Client struct {
	connID string
	conn   *websocket.Conn
	log    *slog.Logger

	// send is drained by the write loop; Consume never blocks on it.
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(log *slog.Logger, conn *websocket.Conn, sendBuffer int) *Client {
	connID := uuid.New().String()
	return &Client{
		connID: connID,
		conn:   conn,
		log:    log.With("component", "ws", "conn", connID),
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// shutdown releases the write loop. Safe to call more than once; the fan-out
// may still hold a reference to the client after the socket is gone.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) ConnID() string {
	return c.connID
}

// Consume queues an outbound event for the connection. When the queue is
// full the event is dropped: a slow reader must not stall the room fan-out.
func (c *Client) Consume(_ context.Context, e event.Outbound) error {
	data, err := encodeEvent(e)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(envelope{Event: e.EventName(), Data: data})
	if err != nil {
		return err
	}
	select {
	case <-c.done:
	case c.send <- frame:
	default:
		c.log.Warn("Outbound queue full, dropping event", "event", e.EventName())
	}
	return nil
}

// writeLoop serializes all writes to the socket, including keepalive pings.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
