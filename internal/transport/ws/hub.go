package ws

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/vedran77/autotask/internal/logging"
)

const outboxSize = 256

// Hub owns the set of live connections, one per account. All access to the
// client map happens on the Run goroutine.
type Hub struct {
	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client
	outbox     chan *outboundMsg
	done       chan struct{}

	logger logging.Logger
}

// outboundMsg targets either every connection of an account or one specific
// client (replies to that client's own requests).
type outboundMsg struct {
	accountID uuid.UUID
	client    *Client
	data      []byte
}

func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbox:     make(chan *outboundMsg, outboxSize),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes registrations and deliveries until ctx is cancelled, then
// closes every remaining connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.send)
			}
			return

		case client := <-h.register:
			if old, ok := h.clients[client.accountID]; ok {
				close(old.send)
				h.logger.Debug(ctx, "ws connection replaced", "account_id", client.accountID)
			}
			h.clients[client.accountID] = client
			h.logger.Debug(ctx, "ws connected", "account_id", client.accountID, "total", len(h.clients))

		case client := <-h.unregister:
			if h.clients[client.accountID] == client {
				delete(h.clients, client.accountID)
				close(client.send)
				h.logger.Debug(ctx, "ws disconnected", "account_id", client.accountID, "total", len(h.clients))
			}

		case msg := <-h.outbox:
			accountID := msg.accountID
			if msg.client != nil {
				accountID = msg.client.accountID
			}
			client, ok := h.clients[accountID]
			if !ok || (msg.client != nil && msg.client != client) {
				continue
			}
			select {
			case client.send <- msg.data:
			default:
				// Slow reader: drop the connection instead of blocking the hub.
				delete(h.clients, accountID)
				close(client.send)
				h.logger.Warn(ctx, "ws send buffer full, dropping connection", "account_id", accountID)
			}
		}
	}
}

// SendToAccount delivers an event to the account's live connection, if any.
func (h *Hub) SendToAccount(accountID uuid.UUID, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error(context.Background(), "ws marshal failed", "type", event.Type, "err", err)
		return
	}
	h.enqueue(&outboundMsg{accountID: accountID, data: data})
}

func (h *Hub) sendToClient(client *Client, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.enqueue(&outboundMsg{client: client, data: data})
}

func (h *Hub) enqueue(msg *outboundMsg) {
	select {
	case h.outbox <- msg:
	case <-h.done:
	}
}

// Register hands a new connection to the hub. It reports false once the hub
// has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
