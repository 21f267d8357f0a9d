// Package statusweb is an optional, read-only HTTP+WebSocket mirror of
// the network loop's event stream, for monitoring a running node from a
// browser instead of (or alongside) the terminal controller.
package statusweb

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server fans a single event stream out to any number of connected
// WebSocket clients. It never sends commands; clients are read-only
// observers.
type Server struct {
	logger *zap.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// New returns an empty Server. Callers feed it events with Publish — the
// caller decides whether that means exclusively consuming the network
// loop's event channel or tee-ing it alongside a terminal controller.
func New(logger *zap.Logger) *Server {
	return &Server{
		logger:  logger,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Publish relays ev to every currently connected WebSocket client.
func (s *Server) Publish(ev string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		if err := c.WriteMessage(websocket.TextMessage, []byte(ev)); err != nil {
			s.logger.Warn("statusweb: write failed, dropping client", zap.Error(err))
			_ = c.Close()
			delete(s.clients, c)
		}
	}
}

// ServeHTTP upgrades the request to a WebSocket and registers the
// connection as an event subscriber until it disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("statusweb: upgrade failed", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	// Drain and discard any client-sent frames; this socket is
	// read-only from the client's point of view, but the connection
	// must still be read to detect disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	_ = conn.Close()
}

// ClientCount returns the number of currently connected clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
