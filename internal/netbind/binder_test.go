package netbind

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/muurk/apswitch/internal/connect"
)

func newTestBinder(known ...string) *Binder {
	b := New()
	b.lookup = func(name string) error {
		for _, k := range known {
			if k == name {
				return nil
			}
		}
		return errors.New("Link not found")
	}
	return b
}

func TestBindUnbind(t *testing.T) {
	b := newTestBinder("wlan0")

	if _, ok := b.Bound(); ok {
		t.Fatal("new binder should be unbound")
	}

	n := connect.Network{ID: "/ac/1", Interface: "wlan0"}
	if err := b.Bind(n); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	got, ok := b.Bound()
	if !ok || got != n {
		t.Errorf("Bound() = %+v, %v", got, ok)
	}
	if b.Interface() != "wlan0" {
		t.Errorf("Interface() = %q", b.Interface())
	}

	if err := b.Unbind(); err != nil {
		t.Fatal(err)
	}
	if err := b.Unbind(); err != nil {
		t.Fatal(err)
	}
	if b.Interface() != "" {
		t.Errorf("Interface() after Unbind = %q", b.Interface())
	}
}

func TestBindRejectsUnknownInterface(t *testing.T) {
	b := newTestBinder("wlan0")

	tests := []struct {
		name string
		n    connect.Network
	}{
		{"missing interface", connect.Network{ID: "/ac/1"}},
		{"unknown interface", connect.Network{ID: "/ac/1", Interface: "wlan9"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := b.Bind(tt.n); err == nil {
				t.Error("Bind() should fail")
			}
			if _, ok := b.Bound(); ok {
				t.Error("failed Bind must not change the binding")
			}
		})
	}
}

func TestDialContextUnbound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	b := New()
	conn, err := b.DialContext(context.Background(), "tcp", srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("DialContext() error = %v", err)
	}
	conn.Close()
}

func TestInstall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	b := New()
	restore := b.Install()
	defer restore()

	tr := http.DefaultTransport.(*http.Transport)
	if tr.DialContext == nil {
		t.Fatal("DialContext not installed")
	}

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET through unbound binder: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("body = %q", body)
	}
}

func TestBindDropsPooledConnections(t *testing.T) {
	var dialled atomic.Int32
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}))
	srv.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		if state == http.StateNew {
			dialled.Add(1)
		}
	}
	srv.Start()
	defer srv.Close()

	b := newTestBinder("apswitch-none0")
	tr := &http.Transport{}
	restore := b.Attach(tr)
	defer restore()
	client := &http.Client{Transport: tr}

	get := func() error {
		resp, err := client.Get(srv.URL)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, err = io.ReadAll(resp.Body)
		return err
	}

	if err := get(); err != nil {
		t.Fatalf("GET before Bind: %v", err)
	}

	// the interface passes lookup but cannot carry sockets
	if err := b.Bind(connect.Network{ID: "/ac/1", Interface: "apswitch-none0"}); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if err := get(); err == nil {
		t.Error("GET after Bind reused a connection dialled before the binding")
	}

	if err := b.Unbind(); err != nil {
		t.Fatal(err)
	}
	if err := get(); err != nil {
		t.Fatalf("GET after Unbind: %v", err)
	}
	if n := dialled.Load(); n != 2 {
		t.Errorf("server saw %d connections, want 2", n)
	}
}

func TestAttachRestore(t *testing.T) {
	b := New()
	tr := &http.Transport{}
	restore := b.Attach(tr)
	if tr.DialContext == nil {
		t.Fatal("DialContext not attached")
	}
	restore()
	if tr.DialContext != nil {
		t.Error("restore should put back the previous dialer")
	}
	if len(b.transports) != 0 {
		t.Errorf("restore left %d transports tracked", len(b.transports))
	}
}
