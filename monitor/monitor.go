// Package monitor streams live gesture decisions to developer tooling over
// a websocket endpoint.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"github.com/heckler1/mxmaster-gesture-control/logging"
	"github.com/heckler1/mxmaster-gesture-control/pipeline"
)

var slog = logging.NewLogger("monitor")

var upgrader = websocket.Upgrader{
	// The endpoint is bound to loopback in any sane config, origin
	// checking has nothing to protect there.
	CheckOrigin: func(*http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for b := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return
		}
	}
}

type Server struct {
	addr string
	srv  *http.Server
	ln   net.Listener

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewServer(addr string) *Server {
	s := &Server{addr: addr, clients: make(map[*client]struct{})}
	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.handleEvents)
	s.srv = &http.Server{Handler: mux}
	return s
}

// Start begins serving on the configured address. The returned error covers
// listen failures only, serve errors are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %v", s.addr, err)
	}
	s.ln = ln

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("monitor server failed", "error", err)
		}
	}()

	slog.Info("monitor listening", "addr", ln.Addr())
	return nil
}

// Addr is the bound listen address, available after Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Broadcast fans one observation out to every connected client. A slow
// client loses messages instead of stalling the dispatch path.
func (s *Server) Broadcast(o pipeline.Observation) {
	b, err := sonic.Marshal(o)
	if err != nil {
		slog.Error("failed to marshal observation", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- b:
		default:
		}
	}
}

func (s *Server) Close() error {
	s.mu.Lock()
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("failed to upgrade connection", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 64)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	slog.Info("client connected", "addr", conn.RemoteAddr())

	go c.writeLoop()

	// Inbound messages are discarded, the read loop only notices closure.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()
	if ok {
		close(c.send)
	}
	slog.Info("client disconnected", "addr", conn.RemoteAddr())
}

func (s *Server) clientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
