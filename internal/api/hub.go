package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/unklstewy/planefinder/internal/maplayer"
	"github.com/unklstewy/planefinder/internal/scan"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

// Message is one frame on the op stream. A client first receives a
// "snapshot" holding the draw ops of the current map, then one "ops"
// message per tick. Ops are keyed by handle: a removal of an unknown
// handle or a draw of a known one may occur right after the snapshot
// and must be treated as a no-op or replacement.
type Message struct {
	Type string        `json:"type"`
	At   time.Time     `json:"at,omitzero"`
	Ops  []maplayer.Op `json:"ops"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans tick ops out to websocket clients.
type Hub struct {
	layer    *maplayer.Layer
	logger   *slog.Logger
	upgrader websocket.Upgrader

	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}
}

// NewHub creates a hub streaming the given layer. checkOrigin may be nil
// to accept any origin.
func NewHub(layer *maplayer.Layer, logger *slog.Logger, checkOrigin func(*http.Request) bool) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		layer:  layer,
		logger: logger.With("component", "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Publish queues a tick batch for every client. It never blocks the
// scanner; when the hub is saturated the batch is dropped.
func (h *Hub) Publish(b scan.Batch) {
	data, err := json.Marshal(Message{Type: "ops", At: b.Result.At, Ops: b.Ops})
	if err != nil {
		h.logger.Error("failed to encode ops", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("broadcast queue full, dropping tick", "ops", len(b.Ops))
	}
}

// Run serves registrations and broadcasts until ctx is done, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return nil

		case c := <-h.register:
			data, err := json.Marshal(Message{Type: "snapshot", Ops: h.layer.DrawOps()})
			if err != nil {
				h.logger.Error("failed to encode snapshot", "error", err)
				c.conn.Close()
				continue
			}
			h.clients[c] = true
			c.send <- data
			h.logger.Info("client connected", "clients", len(h.clients))

		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
				h.logger.Info("client disconnected", "clients", len(h.clients))
			}

		case data := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					h.logger.Warn("slow client dropped")
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
}

// HandleWebSocket upgrades the request and attaches the client to the hub.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "error", err)
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	select {
	case h.register <- c:
	case <-r.Context().Done():
		conn.Close()
		return
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump discards client messages and detects disconnects.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
