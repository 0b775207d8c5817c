package connect

import (
	"context"
	"sync"
	"time"
)

// fakeConnectivity records calls and lets tests deliver events by hand
type fakeConnectivity struct {
	mu       sync.Mutex
	nextReg  Registration
	handlers map[Registration]Handler
	requests []NetworkRequest
	timeouts []time.Duration
	binds    []*Network
	unregs   []Registration

	requestErr error
	bindErr    error

	// onRequest, if set, runs inside RequestNetwork before it returns
	onRequest func(h Handler)
}

func newFakeConnectivity() *fakeConnectivity {
	return &fakeConnectivity{handlers: make(map[Registration]Handler)}
}

func (f *fakeConnectivity) RequestNetwork(_ context.Context, req NetworkRequest, h Handler, timeout time.Duration) (Registration, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.timeouts = append(f.timeouts, timeout)
	if f.requestErr != nil {
		err := f.requestErr
		f.mu.Unlock()
		return 0, err
	}
	f.nextReg++
	reg := f.nextReg
	f.handlers[reg] = h
	hook := f.onRequest
	f.mu.Unlock()

	if hook != nil {
		hook(h)
	}
	return reg, nil
}

func (f *fakeConnectivity) BindProcessToNetwork(n *Network) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.binds = append(f.binds, n)
	return f.bindErr
}

func (f *fakeConnectivity) Unregister(reg Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unregs = append(f.unregs, reg)
	return nil
}

// emit delivers ev to reg even after it was unregistered, the way a late
// callback would race a deregistration
func (f *fakeConnectivity) emit(reg Registration, ev Event) {
	f.mu.Lock()
	h := f.handlers[reg]
	f.mu.Unlock()
	h(ev)
}

func (f *fakeConnectivity) unregCount(reg Registration) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.unregs {
		if r == reg {
			n++
		}
	}
	return n
}

func (f *fakeConnectivity) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeConnectivity) bindCalls() []*Network {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Network(nil), f.binds...)
}

type fakeWifi struct {
	enabled bool
	err     error
	info    ConnectionInfo
	infoErr error
}

func (f *fakeWifi) WifiEnabled(context.Context) (bool, error) { return f.enabled, f.err }

func (f *fakeWifi) ConnectionInfo(context.Context) (ConnectionInfo, error) {
	return f.info, f.infoErr
}

type fakeScan struct {
	permitted bool
	err       error
}

func (f *fakeScan) ScanPermitted(context.Context) (bool, error) { return f.permitted, f.err }
