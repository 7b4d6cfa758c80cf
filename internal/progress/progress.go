// Package progress streams analyzer fan-out progress to WebSocket
// subscribers. It is one concrete consumer of the pipeline's plain
// (completed, total) callback; the pipeline itself never learns about
// transports.
package progress

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local tooling endpoint, no origin policy
	},
}

// Frame is one progress update on the wire.
type Frame struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Server fans progress frames out to every connected client. Slow
// clients drop frames rather than stall the publisher.
type Server struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan Frame
}

// NewServer returns an empty progress hub.
func NewServer() *Server {
	return &Server{clients: map[*client]struct{}{}}
}

// Handler upgrades an HTTP request to a WebSocket subscription. The
// connection stays registered until the peer closes it or the server
// shuts down.
func (s *Server) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("progress: upgrade error: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan Frame, 64)}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go c.writePump()
	c.readPump(s)
}

func (c *client) writePump() {
	defer c.conn.Close()
	for frame := range c.send {
		if err := c.conn.WriteJSON(frame); err != nil {
			return
		}
	}
}

// readPump discards inbound messages; its job is noticing the peer
// going away so the client can be unregistered.
func (c *client) readPump(s *Server) {
	defer s.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
	c.conn.Close()
}

// Publish sends one frame to every subscriber. Safe to call from the
// pipeline's progress callback; never blocks.
func (s *Server) Publish(completed, total int) {
	frame := Frame{Completed: completed, Total: total}
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- frame:
		default: // subscriber is behind; skip this frame for it
		}
	}
}

// Callback adapts the server to the pipeline's progress-callback shape.
func (s *Server) Callback() func(completed, total int) {
	return s.Publish
}

// ClientCount reports the number of live subscribers.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects every subscriber and rejects future ones.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
	for _, c := range clients {
		c.conn.Close()
	}
}
