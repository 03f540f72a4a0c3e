// Package websocket streams committed domain events to connected clients.
package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/simaogato/fraxion-backend/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientBuffer   = 32
	broadcastQueue = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	conn *websocket.Conn
	send chan domain.Event
}

// Hub fans events out to every subscribed client.
// Publish never blocks: events are dropped when the queue is full,
// and slow clients are disconnected.
type Hub struct {
	logger *zap.Logger

	mu      sync.Mutex
	clients map[*client]struct{}

	broadcast chan domain.Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a hub. Call Run to start delivering events.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:    logger,
		clients:   make(map[*client]struct{}),
		broadcast: make(chan domain.Event, broadcastQueue),
		done:      make(chan struct{}),
	}
}

// Publish implements domain.EventPublisher
func (h *Hub) Publish(event domain.Event) {
	select {
	case <-h.done:
	case h.broadcast <- event:
	default:
		h.logger.Warn("event queue full, dropping event", zap.String("type", event.Type))
	}
}

// Run delivers events until ctx is cancelled, then disconnects every client
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) deliver(event domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- event:
		default:
			h.logger.Warn("client too slow, disconnecting")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *Hub) shutdown() {
	h.closeOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()
		for c := range h.clients {
			delete(h.clients, c)
			close(c.send)
		}
	})
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the request and subscribes the connection
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan domain.Event, clientBuffer)}

	h.mu.Lock()
	select {
	case <-h.done:
		h.mu.Unlock()
		_ = conn.Close()
		return
	default:
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("websocket client connected", zap.String("remote", r.RemoteAddr))

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump discards client messages and notices disconnects
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				h.logger.Debug("websocket write failed", zap.Error(err))
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
