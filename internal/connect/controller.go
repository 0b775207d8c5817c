package connect

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/apswitch/internal/logging"
)

// Options configures a Controller
type Options struct {
	// Connectivity is required
	Connectivity Connectivity
	// Wifi is required by Connect, Preflight and CurrentAddress
	Wifi WifiState
	// Scan is optional; Preflight skips the scan check when nil
	Scan ScanGate

	// Timeout bounds how long a request may stay pending (default 45s)
	Timeout time.Duration

	// AutoUnregister is the initial value of the observation flag
	AutoUnregister bool

	// Log receives console lines. A new Log is created when nil.
	Log *Log

	// Notify, if set, is called after every handled event with the
	// resulting request state. It runs on the service's goroutine.
	Notify func(Event, State)
}

// Controller drives connection requests and records their lifecycle
type Controller struct {
	conn    Connectivity
	wifi    WifiState
	scan    ScanGate
	timeout time.Duration
	log     *Log
	notify  func(Event, State)

	autoUnregister atomic.Bool

	mu      sync.Mutex
	current *session

	// bindMu serialises BindProcessToNetwork calls; boundBy is the session
	// whose network the process is bound to
	bindMu  sync.Mutex
	boundBy *session
}

// session is the per-request observer state
type session struct {
	req Request

	mu         sync.Mutex
	reg        Registration
	registered bool // reg is known
	done       bool // deregistration requested; later events are dropped
	released   bool // Unregister was called on the service
	state      State
}

// NewController creates a controller around the platform services
func NewController(opts Options) *Controller {
	c := &Controller{
		conn:    opts.Connectivity,
		wifi:    opts.Wifi,
		scan:    opts.Scan,
		timeout: opts.Timeout,
		log:     opts.Log,
		notify:  opts.Notify,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultRequestTimeout
	}
	if c.log == nil {
		c.log = NewLog()
	}
	c.autoUnregister.Store(opts.AutoUnregister)
	return c
}

// Log returns the console log
func (c *Controller) Log() *Log { return c.log }

// AutoUnregister reports the observation flag
func (c *Controller) AutoUnregister() bool { return c.autoUnregister.Load() }

// SetAutoUnregister sets the observation flag. The value is read when a
// callback arrives, so it applies to the outstanding request as well.
func (c *Controller) SetAutoUnregister(v bool) { c.autoUnregister.Store(v) }

// Timeout returns the request timeout
func (c *Controller) Timeout() time.Duration { return c.timeout }

// ClearLog empties the console log
func (c *Controller) ClearLog() { c.log.Clear() }

// State returns the state of the most recent request
func (c *Controller) State() State {
	c.mu.Lock()
	s := c.current
	c.mu.Unlock()

	if s == nil {
		return StateIdle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect is the connect action: it checks the radio, validates the
// input and submits the request. Failures are logged and returned.
func (c *Controller) Connect(ctx context.Context, ssid, hardwareAddress, passphrase string) error {
	enabled, err := c.wifi.WifiEnabled(ctx)
	if err != nil {
		return c.fail(asControllerError("failed to read Wi-Fi state", err))
	}
	if !enabled {
		return c.fail(NewWifiDisabledError())
	}

	req, err := Validate(ssid, hardwareAddress, passphrase)
	if err != nil {
		return c.fail(err)
	}

	return c.RequestConnection(ctx, req)
}

// RequestConnection submits req to the connectivity service and observes
// its lifecycle. Any previous observer is deregistered first.
func (c *Controller) RequestConnection(ctx context.Context, req Request) error {
	s := &session{req: req, state: StateRequested}

	c.mu.Lock()
	prev := c.current
	c.current = s
	c.mu.Unlock()

	if prev != nil {
		c.deregister(prev, "superseded")
		if cleared, err := c.unbind(prev); err != nil {
			logging.LogBinding("", err)
		} else if cleared {
			logging.Info("Cleared binding of superseded request", zap.String("ssid", prev.req.SSID))
		}
	}

	c.appendLine(fmt.Sprintf("requesting %s (%s)", req.SSID, FormatBSSID(req.BSSID)))
	logging.LogRequest(req.SSID, FormatBSSID(req.BSSID), req.Security.String(), c.timeout.Seconds())

	reg, err := c.conn.RequestNetwork(ctx, NewNetworkRequest(req), func(ev Event) {
		c.handle(s, ev)
	}, c.timeout)
	if err != nil {
		s.mu.Lock()
		s.done = true
		s.state = StateIdle
		s.mu.Unlock()
		return c.fail(asControllerError("network request failed", err))
	}

	s.mu.Lock()
	s.reg = reg
	s.registered = true
	pending := s.done && !s.released
	if pending {
		s.released = true
	}
	s.mu.Unlock()

	// a callback asked for deregistration before the registration was known
	if pending {
		c.unregister(reg, "deferred")
	}
	return nil
}

// handle is the single dispatch point for every observer callback
func (c *Controller) handle(s *session, ev Event) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}

	c.appendLine(ev.LogLine())
	logging.LogNetworkEvent(ev.Kind.String(), ev.Network.ID, ev.Network.Interface)

	switch ev.Kind {
	case EventAvailable:
		n := ev.Network
		if err := c.setBinding(s, &n); err != nil {
			c.appendLine(fmt.Sprintf("bind failed: %v", err))
			logging.LogBinding(n.Interface, err)
		} else {
			logging.LogBinding(n.Interface, nil)
		}
		if c.autoUnregister.Load() {
			s.done = true
		}
	case EventLost:
		if err := c.setBinding(s, nil); err != nil {
			c.appendLine(fmt.Sprintf("unbind failed: %v", err))
			logging.LogBinding("", err)
		} else {
			logging.LogBinding("", nil)
		}
		s.done = true
	case EventUnavailable:
		if c.autoUnregister.Load() {
			s.done = true
		}
	}

	s.state = s.state.next(ev.Kind)
	state := s.state
	reg, release := s.reg, s.done && s.registered && !s.released
	if release {
		s.released = true
	}
	s.mu.Unlock()

	if release {
		c.unregister(reg, ev.Kind.String())
	}
	if c.notify != nil {
		c.notify(ev, state)
	}
}

// deregister stops observation for s exactly once
func (c *Controller) deregister(s *session, reason string) {
	s.mu.Lock()
	s.done = true
	reg, release := s.reg, s.registered && !s.released
	if release {
		s.released = true
	}
	s.mu.Unlock()

	if release {
		c.unregister(reg, reason)
	}
}

func (c *Controller) unregister(reg Registration, reason string) {
	logging.LogUnregister(uint64(reg), reason)
	if err := c.conn.Unregister(reg); err != nil {
		logging.Warn("Unregister failed", zap.Uint64("registration", uint64(reg)), zap.Error(err))
	}
}

// setBinding binds the process to n on behalf of s, or unbinds when n is nil
func (c *Controller) setBinding(s *session, n *Network) error {
	c.bindMu.Lock()
	defer c.bindMu.Unlock()

	if err := c.conn.BindProcessToNetwork(n); err != nil {
		return err
	}
	if n == nil {
		c.boundBy = nil
	} else {
		c.boundBy = s
	}
	return nil
}

// unbind clears the process binding if s holds it, or whoever holds it
// when s is nil. It reports whether there was a binding to clear.
func (c *Controller) unbind(s *session) (bool, error) {
	c.bindMu.Lock()
	defer c.bindMu.Unlock()

	if c.boundBy == nil || (s != nil && c.boundBy != s) {
		return false, nil
	}
	if err := c.conn.BindProcessToNetwork(nil); err != nil {
		return true, err
	}
	c.boundBy = nil
	return true, nil
}

// Release deregisters the outstanding observer and clears any process
// binding left by this controller. Call it on exit.
func (c *Controller) Release() {
	c.mu.Lock()
	s := c.current
	c.current = nil
	c.mu.Unlock()

	if s != nil {
		c.deregister(s, "release")
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
	}

	if _, err := c.unbind(nil); err != nil {
		logging.LogBinding("", err)
	}
}

// Preflight runs the startup checks: radio state and scan permission.
// Each failure is logged and returned; an empty result means ready.
func (c *Controller) Preflight(ctx context.Context) []error {
	var errs []error

	enabled, err := c.wifi.WifiEnabled(ctx)
	switch {
	case err != nil:
		errs = append(errs, c.fail(asControllerError("failed to read Wi-Fi state", err)))
	case !enabled:
		errs = append(errs, c.fail(NewWifiDisabledError()))
	}

	if c.scan != nil {
		permitted, err := c.scan.ScanPermitted(ctx)
		switch {
		case err != nil:
			errs = append(errs, c.fail(asControllerError("failed to read scan permission", err)))
		case !permitted:
			errs = append(errs, c.fail(NewScanDeniedError()))
		}
	}

	return errs
}

// CurrentAddress returns the BSSID of the current association. When
// requiredSSID is set the current SSID must contain it.
func (c *Controller) CurrentAddress(ctx context.Context, requiredSSID string) (string, error) {
	info, err := c.wifi.ConnectionInfo(ctx)
	if err != nil {
		return "", c.fail(asControllerError("failed to read connection info", err))
	}
	if !info.Connected() {
		return "", c.fail(NewNotConnectedError())
	}
	if requiredSSID != "" && !strings.Contains(info.SSID, requiredSSID) {
		return "", c.fail(NewWrongNetworkError(requiredSSID, info.SSID))
	}
	return strings.ToUpper(info.BSSID), nil
}

func (c *Controller) appendLine(line string) {
	c.log.Append(line)
	logging.LogConsoleLine(line)
}

// fail logs err as a console line and returns it
func (c *Controller) fail(err error) error {
	c.appendLine("error: " + UserMessage(err))
	return err
}

// asControllerError keeps *Error values and wraps anything else as a backend error
func asControllerError(msg string, err error) error {
	var cErr *Error
	if errors.As(err, &cErr) {
		return err
	}
	return NewBackendError(msg, err)
}
