package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scholia/internal/interfaces"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local deployment, single origin
	},
}

// wsMessage is the envelope broadcast to connected clients
type wsMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// wsClient pairs a connection with the owner it authenticated as and
// a write lock serializing concurrent broadcasts.
type wsClient struct {
	ownerID string
	writeMu sync.Mutex
}

// WebSocketHandler streams corpus events (documents saved and deleted,
// questions answered) to connected clients. Every event is delivered
// only to connections authenticated as the event's owner.
type WebSocketHandler struct {
	logger  arbor.ILogger
	clients map[*websocket.Conn]*wsClient
	mu      sync.RWMutex
}

// NewWebSocketHandler creates the handler and wires it onto the bus
func NewWebSocketHandler(eventService interfaces.EventService, logger arbor.ILogger) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:  logger,
		clients: make(map[*websocket.Conn]*wsClient),
	}

	for _, eventType := range []interfaces.EventType{
		interfaces.EventDocumentSaved,
		interfaces.EventDocumentDeleted,
		interfaces.EventQuestionAnswered,
	} {
		eventType := eventType
		if _, err := eventService.Subscribe(eventType, func(ctx context.Context, event interfaces.Event) error {
			h.broadcast(event)
			return nil
		}); err != nil {
			logger.Warn().
				Err(err).
				Str("event_type", string(eventType)).
				Msg("Failed to subscribe websocket handler")
		}
	}

	return h
}

// HandleWebSocket upgrades the connection for an identified owner and
// keeps it registered until the client goes away.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := RequireOwner(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = &wsClient{ownerID: ownerID}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().
		Str("owner_id", ownerID).
		Int("client_count", count).
		Msg("WebSocket client connected")

	// Read loop exists only to detect disconnects.
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// broadcast delivers an event to the owner's connections only. Events
// without an owner identity are never sent to any client.
func (h *WebSocketHandler) broadcast(event interfaces.Event) {
	if event.OwnerID == "" {
		return
	}

	msg := wsMessage{
		Type:      string(event.Type),
		Payload:   event.Payload,
		Timestamp: time.Now(),
	}

	h.mu.RLock()
	conns := make(map[*websocket.Conn]*wsClient, len(h.clients))
	for conn, client := range h.clients {
		if client.ownerID == event.OwnerID {
			conns[conn] = client
		}
	}
	h.mu.RUnlock()

	for conn, client := range conns {
		client.writeMu.Lock()
		err := conn.WriteJSON(msg)
		client.writeMu.Unlock()
		if err != nil {
			h.remove(conn)
		}
	}
}

func (h *WebSocketHandler) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
	h.mu.Unlock()
}
