package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scholia/internal/interfaces"
	"github.com/ternarybob/scholia/internal/services/events"
)

func newWebSocketFixture(t *testing.T) (interfaces.EventService, *httptest.Server) {
	t.Helper()

	bus := events.NewService(arbor.NewLogger())
	handler := NewWebSocketHandler(bus, arbor.NewLogger())
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	t.Cleanup(server.Close)
	t.Cleanup(func() { bus.Close() })

	return bus, server
}

func dialOwner(t *testing.T, server *httptest.Server, ownerID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	header := http.Header{OwnerHeader: []string{ownerID}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketRejectsMissingOwner(t *testing.T) {
	_, server := newWebSocketFixture(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if conn != nil {
		conn.Close()
	}

	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketDeliversOnlyToEventOwner(t *testing.T) {
	bus, server := newWebSocketFixture(t)

	ownerConn := dialOwner(t, server, "owner-a")
	otherConn := dialOwner(t, server, "owner-b")

	err := bus.PublishSync(context.Background(), interfaces.Event{
		Type:    interfaces.EventDocumentSaved,
		OwnerID: "owner-a",
		Payload: map[string]string{"doc_id": "doc-123"},
	})
	require.NoError(t, err)

	var msg struct {
		Type    string            `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	require.NoError(t, ownerConn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, ownerConn.ReadJSON(&msg))
	assert.Equal(t, string(interfaces.EventDocumentSaved), msg.Type)
	assert.Equal(t, "doc-123", msg.Payload["doc_id"])

	// The other tenant's connection must see nothing.
	require.NoError(t, otherConn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = otherConn.ReadMessage()
	assert.Error(t, err)
}

func TestWebSocketDropsOwnerlessEvents(t *testing.T) {
	bus, server := newWebSocketFixture(t)

	conn := dialOwner(t, server, "owner-a")

	err := bus.PublishSync(context.Background(), interfaces.Event{
		Type:    interfaces.EventDocumentSaved,
		Payload: map[string]string{"doc_id": "doc-456"},
	})
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
