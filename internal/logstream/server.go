package logstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/apswitch/internal/connect"
	"github.com/muurk/apswitch/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// Entries buffered per client before new ones are dropped
	clientBuffer = 256
)

// Path is the WebSocket endpoint
const Path = "/log"

// Server streams a console Log to WebSocket clients
type Server struct {
	log      *connect.Log
	addr     string
	upgrader websocket.Upgrader

	httpServer *http.Server
	listener   net.Listener

	wg          sync.WaitGroup
	mu          sync.Mutex
	activeConns map[string]*websocket.Conn
}

// New creates a Server for log listening on addr (e.g. "127.0.0.1:8765")
func New(log *connect.Log, addr string) *Server {
	return &Server{
		log:  log,
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		activeConns: make(map[string]*websocket.Conn),
	}
}

// Handler returns the HTTP handler serving Path
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.handleLog)
	return mux
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Info("Log stream listening", zap.String("addr", listener.Addr().String()))

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Log stream server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the listening address once started, else the configured one
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}
	remoteAddr := r.RemoteAddr

	s.mu.Lock()
	s.activeConns[remoteAddr] = conn
	s.mu.Unlock()
	s.wg.Add(1)

	defer func() {
		_ = conn.Close()
		s.mu.Lock()
		delete(s.activeConns, remoteAddr)
		s.mu.Unlock()
		s.wg.Done()
		logging.Debug("Log stream client disconnected", zap.String("remote_addr", remoteAddr))
	}()

	logging.Debug("Log stream client connected", zap.String("remote_addr", remoteAddr))

	// subscribe before reading the backlog so no line falls in between
	entries, cancel := s.log.Subscribe(clientBuffer)
	defer cancel()
	backlog := s.log.Entries()

	var last time.Time
	for _, e := range backlog {
		if err := writeEntry(conn, e); err != nil {
			return
		}
		last = e.Time
	}

	closed := make(chan struct{})
	go readPump(conn, closed)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-entries:
			if !ok {
				return
			}
			// already sent as part of the backlog
			if !e.Cleared && !e.Time.After(last) && len(backlog) > 0 {
				continue
			}
			if err := writeEntry(conn, e); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

// writeEntry sends one line; a clear is sent as an empty message
func writeEntry(conn *websocket.Conn, e connect.Entry) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	text := e.Text
	if e.Cleared {
		text = ""
	}
	return conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// readPump discards client messages and reports when the peer goes away
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Shutdown stops accepting clients and closes the active ones
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	s.mu.Lock()
	for addr, conn := range s.activeConns {
		logging.Debug("Closing log stream client", zap.String("remote_addr", addr))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logging.Warn("Log stream shutdown timeout, forcing close")
	}
	return err
}

// GetActiveConnections returns the number of connected clients
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}
