// SPDX-License-Identifier: MIT
package notify

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSink builds a WebSocketSink whose handler is exercised through an
// httptest.Server instead of WebSocketSink's own ListenAndServe, so the test
// never depends on binding a real OS-level listening port.
func newTestSink(t *testing.T) (*WebSocketSink, *httptest.Server) {
	t.Helper()
	ws := &WebSocketSink{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan any, 256),
	}
	go ws.handleBroadcasts()

	srv := httptest.NewServer(http.HandlerFunc(ws.handleWebSocket))
	t.Cleanup(srv.Close)
	return ws, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketSink_SendBroadcastsToConnectedClient(t *testing.T) {
	ws, srv := newTestSink(t)
	conn := dial(t, srv)

	require.NoError(t, ws.Send(Notification{Kind: "param_change", Timestamp: 42}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Notification
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "param_change", got.Kind)
	assert.EqualValues(t, 42, got.Timestamp)
}

func TestWebSocketSink_SendDropsRatherThanBlockWhenBufferFull(t *testing.T) {
	ws := &WebSocketSink{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan any, 1),
	}
	require.NoError(t, ws.Send("first"))
	// buffer now full; a second Send must not block the caller.
	done := make(chan struct{})
	go func() {
		_ = ws.Send("second")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked on a full buffer")
	}
}

func TestWebSocketSink_CloseDisconnectsClientsAndIsIdempotent(t *testing.T) {
	ws, srv := newTestSink(t)
	dial(t, srv)

	require.NoError(t, ws.Close())
	assert.Empty(t, ws.clients)
	require.NoError(t, ws.Close())
}
