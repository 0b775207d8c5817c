package logstream

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muurk/apswitch/internal/connect"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + Path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	typ, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if typ != websocket.TextMessage {
		t.Fatalf("message type = %d, want text", typ)
	}
	return string(data)
}

func waitForClients(t *testing.T, s *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.GetActiveConnections() != n {
		if time.Now().After(deadline) {
			t.Fatalf("active connections = %d, want %d", s.GetActiveConnections(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBacklogThenLive(t *testing.T) {
	log := connect.NewLog()
	log.Append("requesting Deeper (AA:BB:CC:DD:EE:FF)")
	log.Append("available: network=wlan0@/ac/1")

	s := New(log, "")
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv)

	if got := readText(t, conn); got != "requesting Deeper (AA:BB:CC:DD:EE:FF)" {
		t.Errorf("backlog[0] = %q", got)
	}
	if got := readText(t, conn); got != "available: network=wlan0@/ac/1" {
		t.Errorf("backlog[1] = %q", got)
	}

	waitForClients(t, s, 1)
	log.Append("lost: network=wlan0@/ac/1")
	if got := readText(t, conn); got != "lost: network=wlan0@/ac/1" {
		t.Errorf("live line = %q", got)
	}

	log.Clear()
	if got := readText(t, conn); got != "" {
		t.Errorf("clear should be an empty message, got %q", got)
	}
}

func TestMultipleClients(t *testing.T) {
	log := connect.NewLog()
	s := New(log, "")
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	a := dial(t, srv)
	b := dial(t, srv)
	waitForClients(t, s, 2)

	log.Append("hello")
	if got := readText(t, a); got != "hello" {
		t.Errorf("client a got %q", got)
	}
	if got := readText(t, b); got != "hello" {
		t.Errorf("client b got %q", got)
	}

	a.Close()
	waitForClients(t, s, 1)
}

func TestStartAndShutdown(t *testing.T) {
	log := connect.NewLog()
	s := New(log, "127.0.0.1:0")
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr()+Path, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	waitForClients(t, s, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if s.GetActiveConnections() != 0 {
		t.Errorf("active connections after Shutdown = %d", s.GetActiveConnections())
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("client should be disconnected after Shutdown")
	}
}
