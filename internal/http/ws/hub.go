package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	appplayers "sleeper-players-service/internal/app/players"
	"sleeper-players-service/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
	broadcastQueue = 64
)

// Message types pushed to clients.
const (
	TypeSnapshot = "snapshot"
	TypeStatus   = "status"
)

// Message is the frame written to every client.
type Message struct {
	Type      string                       `json:"type"`
	Status    *appplayers.Status           `json:"status,omitempty"`
	Statuses  map[string]appplayers.Status `json:"statuses,omitempty"`
	Timestamp int64                        `json:"timestamp"`
}

// SnapshotFunc returns the current status of every sport.
type SnapshotFunc func() map[string]appplayers.Status

// Hub fans orchestrator state changes out to websocket clients.
type Hub struct {
	logger   *slog.Logger
	snapshot SnapshotFunc
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}

	broadcast chan []byte
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// NewHub builds a hub. allowedOrigins of nil or "*" accepts any origin.
func NewHub(logger *slog.Logger, snapshot SnapshotFunc, allowedOrigins []string) *Hub {
	h := &Hub{
		logger:    logger,
		snapshot:  snapshot,
		clients:   make(map[*client]struct{}),
		broadcast: make(chan []byte, broadcastQueue),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

// Run delivers queued broadcasts until ctx ends, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

// Publish queues a status change. It never blocks; a full queue drops the frame.
func (h *Hub) Publish(status appplayers.Status) {
	if h == nil {
		return
	}
	data, ok := h.encode(Message{Type: TypeStatus, Status: &status, Timestamp: time.Now().UnixMilli()})
	if !ok {
		return
	}
	select {
	case h.broadcast <- data:
	default:
		logging.Warn(h.logger, "status broadcast dropped", slog.String(logging.FieldPartition, status.Partition))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams status frames to the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn(logging.FromContext(r.Context(), h.logger), "websocket upgrade failed", "error", err)
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	// Snapshot and registration share the lock so fanOut cannot slip a
	// status in between them; the snapshot stays the first frame.
	h.mu.Lock()
	if h.snapshot != nil {
		if data, ok := h.encode(Message{Type: TypeSnapshot, Statuses: h.snapshot(), Timestamp: time.Now().UnixMilli()}); ok {
			c.send <- data
		}
	}
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	logging.Info(h.logger, "websocket client connected", slog.Int(logging.FieldCount, count))

	go c.writePump()
	go c.readPump()
}

func (h *Hub) fanOut(msg []byte) {
	h.mu.RLock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.remove(c)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.close()
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()
	for c := range clients {
		c.close()
	}
}

func (h *Hub) encode(msg Message) ([]byte, bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		logging.Error(h.logger, "websocket encode failed", err)
		return nil, false
	}
	return data, true
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// readPump discards client frames and keeps the read deadline alive via pongs.
func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn(c.hub.logger, "websocket read failed", "error", err)
			}
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
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimSpace(o)
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[strings.ToLower(o)] = struct{}{}
		}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.ToLower(origin)]
		return ok
	}
}
