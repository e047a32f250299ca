// SPDX-License-Identifier: MIT
package notify

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Mkinney99/sushi/internal/logging"
)

// WebSocketSink implements Sink by broadcasting notifications as JSON to
// every connected WebSocket client. Adapted from the teacher's
// internal/transport/websocket.go, generalized from FFT-magnitude frames to
// arbitrary Notification payloads.
type WebSocketSink struct {
	addr      string
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan any
	server    *http.Server
}

// NewWebSocketSink starts an HTTP server on addr exposing a /ws endpoint and
// returns a Sink that broadcasts to every connected client.
func NewWebSocketSink(addr string) *WebSocketSink {
	ws := &WebSocketSink{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan any, 256),
	}
	ws.start()
	return ws
}

func (ws *WebSocketSink) start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", ws.handleWebSocket)

	ws.server = &http.Server{Addr: ws.addr, Handler: mux}

	go func() {
		logging.Infof("notify: starting websocket server on %s", ws.addr)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Errorf("notify: server error: %v", err)
		}
	}()

	go ws.handleBroadcasts()
}

func (ws *WebSocketSink) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Errorf("notify: upgrade error: %v", err)
		return
	}

	ws.clientsMu.Lock()
	ws.clients[conn] = true
	ws.clientsMu.Unlock()

	go func() {
		_, _, err := conn.ReadMessage()
		if err != nil {
			ws.clientsMu.Lock()
			delete(ws.clients, conn)
			ws.clientsMu.Unlock()
			conn.Close()
		}
	}()
}

func (ws *WebSocketSink) handleBroadcasts() {
	for data := range ws.broadcast {
		ws.clientsMu.Lock()
		for client := range ws.clients {
			if err := client.WriteJSON(data); err != nil {
				client.Close()
				delete(ws.clients, client)
			}
		}
		ws.clientsMu.Unlock()
	}
}

// Send queues data for broadcast; if the internal buffer is full the
// notification is dropped rather than blocking the dispatcher goroutine.
func (ws *WebSocketSink) Send(data any) error {
	select {
	case ws.broadcast <- data:
	default:
	}
	return nil
}

// Close shuts down all client connections and the HTTP server.
func (ws *WebSocketSink) Close() error {
	ws.clientsMu.Lock()
	for client := range ws.clients {
		client.Close()
	}
	ws.clients = make(map[*websocket.Conn]bool)
	ws.clientsMu.Unlock()

	if ws.server != nil {
		return ws.server.Close()
	}
	return nil
}

var _ Sink = (*WebSocketSink)(nil)
