package netbind

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/muurk/apswitch/internal/connect"
)

// ErrUnsupported is returned on platforms without per-socket device binding
var ErrUnsupported = errors.New("process network binding is not supported on this platform")

// Binder pins outgoing connections of this process to one interface.
// The zero value is not usable; create one with New.
type Binder struct {
	mu      sync.RWMutex
	network connect.Network
	bound   bool

	// transports routed through DialContext by Install
	transports []*http.Transport

	// lookup verifies that an interface exists
	lookup func(name string) error
	dialer net.Dialer
}

// New creates an unbound Binder
func New() *Binder {
	return &Binder{
		lookup: linkExists,
		dialer: net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		},
	}
}

// Bind routes subsequent dials through n's interface
func (b *Binder) Bind(n connect.Network) error {
	if n.Interface == "" {
		return fmt.Errorf("network %s has no interface", n.ID)
	}
	if err := b.lookup(n.Interface); err != nil {
		return fmt.Errorf("interface %s: %w", n.Interface, err)
	}

	b.mu.Lock()
	b.network = n
	b.bound = true
	b.mu.Unlock()

	b.closeIdle()
	return nil
}

// Unbind reverts to the default route. Unbinding an unbound Binder is a no-op.
func (b *Binder) Unbind() error {
	b.mu.Lock()
	was := b.bound
	b.network = connect.Network{}
	b.bound = false
	b.mu.Unlock()

	if was {
		b.closeIdle()
	}
	return nil
}

// closeIdle drops pooled connections dialled under the previous binding
func (b *Binder) closeIdle() {
	b.mu.RLock()
	transports := append([]*http.Transport(nil), b.transports...)
	b.mu.RUnlock()

	for _, t := range transports {
		t.CloseIdleConnections()
	}
}

// Bound returns the current network, if any
func (b *Binder) Bound() (connect.Network, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.network, b.bound
}

// Interface returns the bound interface name, or "" when unbound
func (b *Binder) Interface() string {
	n, _ := b.Bound()
	return n.Interface
}

// DialContext dials through the bound interface, or normally when unbound
func (b *Binder) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d := b.dialer
	if iface := b.Interface(); iface != "" {
		d.Control = bindControl(iface)
	}
	return d.DialContext(ctx, network, address)
}

// Install routes http.DefaultTransport through the Binder so that every
// HTTP client built on it follows the binding. The returned function
// restores the previous dialer.
func (b *Binder) Install() (restore func()) {
	t, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return func() {}
	}
	return b.Attach(t)
}

// Attach routes t through the Binder. Idle connections of t are closed
// whenever the binding changes so that reused connections follow it too.
func (b *Binder) Attach(t *http.Transport) (restore func()) {
	b.mu.Lock()
	prev := t.DialContext
	t.DialContext = b.DialContext
	b.transports = append(b.transports, t)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		t.DialContext = prev
		for i, tt := range b.transports {
			if tt == t {
				b.transports = append(b.transports[:i], b.transports[i+1:]...)
				break
			}
		}
	}
}
