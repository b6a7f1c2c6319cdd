package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/leapball/internal/gesture"
)

const (
	clientBuffer = 32
	writeTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local clients only
	},
}

// Message is the JSON envelope broadcast for every gesture event.
type Message struct {
	ID       uuid.UUID    `json:"id"`
	Session  uuid.UUID    `json:"session"`
	Kind     gesture.Kind `json:"kind"`
	Distance float64      `json:"distance,omitempty"`
	Frame    int64        `json:"frame"`
	Time     time.Time    `json:"time"`
}

type client struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts gesture events to websocket clients. It is a gesture.Sink:
// Notify never blocks, and a client that falls behind loses messages.
type Hub struct {
	session uuid.UUID
	log     logrus.FieldLogger

	mu      sync.RWMutex
	clients map[uuid.UUID]*client

	sent    atomic.Uint64
	dropped atomic.Uint64
}

// NewHub creates a hub stamping messages with session.
func NewHub(session uuid.UUID, logger logrus.FieldLogger) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Hub{
		session: session,
		log:     logger.WithField("component", "hub"),
		clients: make(map[uuid.UUID]*client),
	}
}

// Notify queues e for every connected client.
func (h *Hub) Notify(e gesture.Event) {
	msg, err := json.Marshal(Message{
		ID:       uuid.New(),
		Session:  h.session,
		Kind:     e.Kind,
		Distance: e.DistanceTraveled,
		Frame:    e.FrameID,
		Time:     time.Now().UTC(),
	})
	if err != nil {
		h.log.WithError(err).Error("encode event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
			h.sent.Add(1)
		default:
			h.dropped.Add(1)
			h.log.WithField("client", c.id).Warn("client too slow, dropping event")
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns the number of queued and dropped messages.
func (h *Hub) Stats() (sent, dropped uint64) {
	return h.sent.Load(), h.dropped.Load()
}

// ServeHTTP upgrades the request and streams events until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade")
		return
	}

	c := &client{id: uuid.New(), conn: conn, send: make(chan []byte, clientBuffer)}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.log.WithField("client", c.id).Info("client connected")

	done := make(chan struct{})
	go h.writeLoop(c, done)

	// Incoming messages are ignored; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	close(c.send)
	<-done

	conn.Close()
	h.log.WithField("client", c.id).Info("client disconnected")
}

func (h *Hub) writeLoop(c *client, done chan<- struct{}) {
	defer close(done)
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.WithError(err).WithField("client", c.id).Debug("websocket write")
			c.conn.Close()
			// Drain until ServeHTTP closes the channel.
			for range c.send {
			}
			return
		}
	}
}
