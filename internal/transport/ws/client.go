package ws

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/autotask/internal/logging"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 4096
	sendBufSize    = 64
)

// Client is a single WebSocket connection bound to an account.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	accountID uuid.UUID
	logger    logging.Logger

	// send is closed by the hub only.
	send chan []byte
}

func NewClient(hub *Hub, conn *websocket.Conn, accountID uuid.UUID, logger logging.Logger) *Client {
	conn.SetReadLimit(maxMessageSize)
	return &Client{
		hub:       hub,
		conn:      conn,
		accountID: accountID,
		logger:    logger,
		send:      make(chan []byte, sendBufSize),
	}
}

// ReadPump reads client events until the connection fails or is closed.
func (c *Client) ReadPump(ctx context.Context) {
	defer c.hub.Unregister(c)

	for {
		var event Event
		if err := wsjson.Read(ctx, c.conn, &event); err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				c.logger.Debug(ctx, "ws read failed", "account_id", c.accountID, "err", err)
			}
			return
		}
		c.handleEvent(&event)
	}
}

// WritePump drains the send channel. It closes the connection when the hub
// closes send, which is how replacement and shutdown reach the socket.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(wctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.conn.Close(websocket.StatusInternalError, "write failed")
				return
			}

		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				c.conn.Close(websocket.StatusGoingAway, "ping timeout")
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) handleEvent(event *Event) {
	switch event.Type {
	case EventTypePing:
		c.hub.sendToClient(c, &Event{Type: EventTypePong, Timestamp: time.Now().Unix()})
	default:
		c.sendError("UNKNOWN_EVENT", "unknown event type: "+event.Type)
	}
}

func (c *Client) sendError(code, message string) {
	evt, err := NewEvent(EventTypeError, ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	c.hub.sendToClient(c, evt)
}
