package host

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/pageroutes/pkg/deferred"
)

// LiveMessageType is the kind of a LiveMessage.
type LiveMessageType string

const (
	// LiveState reports that an element settled.
	LiveState LiveMessageType = "state"

	// LiveReload asks clients to reload after the route tree changed.
	LiveReload LiveMessageType = "reload"
)

// LiveMessage is sent to every connected client as JSON.
type LiveMessage struct {
	Type    LiveMessageType `json:"type"`
	Element string          `json:"element,omitempty"`
	State   string          `json:"state,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// LiveHub pushes element state changes to websocket clients so a page can
// re-render deferred nodes once they settle.
type LiveHub struct {
	mu       sync.RWMutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
	logger   *slog.Logger

	// gorilla/websocket allows one concurrent writer per connection.
	writeMu sync.Mutex
}

// NewLiveHub creates a hub. checkOrigin may be nil to accept same-origin
// requests only.
func NewLiveHub(logger *slog.Logger, checkOrigin func(r *http.Request) bool) *LiveHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveHub{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
	}
}

// ServeHTTP upgrades the connection and holds it until the client leaves.
func (h *LiveHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("live upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.drop(conn)
}

// Watch publishes e's Ready and Failed transitions. The returned function
// stops publishing.
func (h *LiveHub) Watch(e *deferred.Element) (unwatch func()) {
	return e.Subscribe(func(s deferred.State) {
		if !s.Terminal() {
			return
		}
		msg := LiveMessage{Type: LiveState, Element: e.Name(), State: s.String()}
		if s == deferred.Failed {
			if err := e.Err(); err != nil {
				msg.Error = err.Error()
			}
		}
		h.Broadcast(msg)
	})
}

// NotifyReload tells every client to reload the page.
func (h *LiveHub) NotifyReload() {
	h.Broadcast(LiveMessage{Type: LiveReload})
}

// Broadcast sends msg to every client. Clients that fail to receive it are
// dropped.
func (h *LiveHub) Broadcast(msg LiveMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	for _, c := range clients {
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			h.drop(c)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *LiveHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *LiveHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
}

func (h *LiveHub) drop(c *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.Close()
	}
}
