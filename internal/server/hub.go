package server

import (
	"sync"

	"go.uber.org/zap"

	"github.com/lunablock/lunablock-server/internal/protocol"
)

// Hub tracks live websocket clients by connection id and delivers encoded
// messages to their send queues. Delivery never blocks: a client whose queue
// is full is dropped.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.id] = c
	h.logger.Debug("client registered", zap.String("conn_id", c.id))
}

// unregister removes the client and closes its send queue. It reports
// whether the client was still registered.
func (h *Hub) unregister(connID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connID]
	if !ok {
		return false
	}
	delete(h.clients, connID)
	close(c.send)
	h.logger.Debug("client unregistered", zap.String("conn_id", connID))
	return true
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Send delivers msg to one connection. Unknown connections are ignored.
func (h *Hub) Send(connID string, msg protocol.Message) {
	frame, ok := h.encode(msg)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[connID]; ok {
		h.deliver(c, frame)
	}
}

// Broadcast delivers msg to every connection.
func (h *Hub) Broadcast(msg protocol.Message) {
	frame, ok := h.encode(msg)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.clients {
		h.deliver(c, frame)
	}
}

// deliver queues frame for c. Caller holds h.mu.
func (h *Hub) deliver(c *Client, frame []byte) {
	select {
	case c.send <- frame:
	default:
		h.logger.Warn("send queue full, dropping client", zap.String("conn_id", c.id))
		delete(h.clients, c.id)
		close(c.send)
	}
}

func (h *Hub) encode(msg protocol.Message) ([]byte, bool) {
	frame, err := protocol.Encode(msg)
	if err != nil {
		h.logger.Error("failed to encode message",
			zap.String("event", string(msg.Event())),
			zap.Error(err),
		)
		return nil, false
	}
	return frame, true
}
