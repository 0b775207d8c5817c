package netmgr

import (
	"context"
	"time"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"

	"github.com/muurk/apswitch/internal/connect"
	"github.com/muurk/apswitch/internal/logging"
)

// watch is one registered observer for an activation
type watch struct {
	req     connect.NetworkRequest
	handler connect.Handler
	active  dbus.ObjectPath
	timer   *time.Timer

	available bool
	finished  bool // Lost or Unavailable delivered
}

func (w *watch) stopTimer() {
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *watch) network(iface string) connect.Network {
	return connect.Network{ID: string(w.active), Interface: iface}
}

// delivery is a handler call collected under the lock and run outside it
type delivery struct {
	h  connect.Handler
	ev connect.Event
}

func run(deliveries []delivery) {
	for _, d := range deliveries {
		d.h(d.ev)
	}
}

// RequestNetwork activates a volatile connection to the requested access
// point and observes it until Unregister. If the connection is not
// activated within timeout it is deactivated and EventUnavailable is
// delivered once.
func (c *Client) RequestNetwork(ctx context.Context, req connect.NetworkRequest, h connect.Handler, timeout time.Duration) (connect.Registration, error) {
	if req.Transport != connect.TransportWiFi {
		return 0, connect.NewBackendError("only Wi-Fi requests are supported", nil)
	}

	var (
		profile dbus.ObjectPath
		active  dbus.ObjectPath
		result  map[string]dbus.Variant
	)
	call := c.conn.Object(busName, managerPath).CallWithContext(ctx,
		managerIface+".AddAndActivateConnection2", 0,
		connectionSettings(req), c.device, dbus.ObjectPath("/"), activationOptions())
	if err := call.Store(&profile, &active, &result); err != nil {
		return 0, connect.NewBackendError("failed to activate connection", err)
	}

	logging.Debug("Activation started",
		zap.String("profile", string(profile)),
		zap.String("active_connection", string(active)),
	)

	if err := c.conn.AddMatchSignal(activeMatch(active)...); err != nil {
		logging.Warn("Failed to watch active connection", zap.String("path", string(active)), zap.Error(err))
	}

	reg := c.addWatch(req, h, active)
	c.startTimer(reg, timeout)
	run(c.syncState(ctx, reg, active))

	return reg, nil
}

// syncState catches up with an activation that settled before the match
// rule was installed. NetworkManager removes the active connection object
// of a failed activation, so a failed read means Unavailable.
func (c *Client) syncState(ctx context.Context, reg connect.Registration, active dbus.ObjectPath) []delivery {
	state, err := c.activeState(ctx, active)
	if err == nil {
		return c.applyState(active, state)
	}
	logging.Debug("Active connection gone before it was watched",
		zap.String("active_connection", string(active)), zap.Error(err))
	return c.failWatch(reg)
}

func (c *Client) activeState(ctx context.Context, active dbus.ObjectPath) (uint32, error) {
	if c.stateFn != nil {
		return c.stateFn(ctx, active)
	}
	return c.getUint32(ctx, active, activeIface, "State")
}

// failWatch ends a pending watch with EventUnavailable
func (c *Client) failWatch(reg connect.Registration) []delivery {
	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.watches[reg]
	if !ok || w.available || w.finished {
		return nil
	}
	w.finished = true
	w.stopTimer()
	return []delivery{{h: w.handler, ev: connect.Event{Kind: connect.EventUnavailable, Network: w.network(c.iface)}}}
}

func activeMatch(active dbus.ObjectPath) []dbus.MatchOption {
	return []dbus.MatchOption{
		dbus.WithMatchObjectPath(active),
		dbus.WithMatchInterface(activeIface),
		dbus.WithMatchMember("StateChanged"),
	}
}

func (c *Client) addWatch(req connect.NetworkRequest, h connect.Handler, active dbus.ObjectPath) connect.Registration {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextReg++
	c.watches[c.nextReg] = &watch{req: req, handler: h, active: active}
	return c.nextReg
}

func (c *Client) startTimer(reg connect.Registration, timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if w, ok := c.watches[reg]; ok && !w.available && !w.finished {
		w.timer = time.AfterFunc(timeout, func() { c.expire(reg) })
	}
}

// expire handles a request that did not become available in time
func (c *Client) expire(reg connect.Registration) {
	c.mu.Lock()
	w, ok := c.watches[reg]
	if !ok || w.available || w.finished {
		c.mu.Unlock()
		return
	}
	w.finished = true
	active, h := w.active, w.handler
	c.mu.Unlock()

	logging.Info("Network request timed out", zap.String("active_connection", string(active)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.deactivate(ctx, active); err != nil {
		logging.Warn("Failed to deactivate pending connection", zap.Error(err))
	}

	h(connect.Event{Kind: connect.EventUnavailable})
}

func (c *Client) deactivate(ctx context.Context, active dbus.ObjectPath) error {
	if c.deactivateFn != nil {
		return c.deactivateFn(ctx, active)
	}
	return c.conn.Object(busName, managerPath).CallWithContext(ctx, managerIface+".DeactivateConnection", 0, active).Err
}

// Unregister stops event delivery for reg. The connection itself is left
// up; it goes away with the bus connection or when NetworkManager drops it.
func (c *Client) Unregister(reg connect.Registration) error {
	c.mu.Lock()
	w, ok := c.watches[reg]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	delete(c.watches, reg)
	w.stopTimer()
	active := w.active
	c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	if err := c.conn.RemoveMatchSignal(activeMatch(active)...); err != nil {
		return connect.NewBackendError("failed to remove signal match", err)
	}
	return nil
}

// watchGlobal subscribes to device and manager property changes
func (c *Client) watchGlobal() error {
	if err := c.conn.AddMatchSignal(
		dbus.WithMatchObjectPath(c.device),
		dbus.WithMatchInterface(propsIface),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		return err
	}
	return c.conn.AddMatchSignal(
		dbus.WithMatchObjectPath(managerPath),
		dbus.WithMatchInterface(propsIface),
		dbus.WithMatchMember("PropertiesChanged"),
	)
}

// dispatch runs until the bus connection closes
func (c *Client) dispatch() {
	for sig := range c.signals {
		logging.LogDBusSignal(string(sig.Path), sig.Name, sig.Body)
		run(c.route(sig))
	}
}

// route turns a signal into handler calls
func (c *Client) route(sig *dbus.Signal) []delivery {
	switch sig.Name {
	case stateSignal:
		if len(sig.Body) < 1 {
			return nil
		}
		state, ok := sig.Body[0].(uint32)
		if !ok {
			return nil
		}
		return c.applyState(sig.Path, state)

	case propsSignal:
		if len(sig.Body) < 2 {
			return nil
		}
		iface, ok := sig.Body[0].(string)
		if !ok {
			return nil
		}
		changed, ok := sig.Body[1].(map[string]dbus.Variant)
		if !ok {
			return nil
		}
		switch {
		case sig.Path == c.device && iface == deviceIface:
			return c.deviceChanged(changed)
		case sig.Path == managerPath && iface == managerIface:
			return c.managerChanged(changed)
		}
	}
	return nil
}

// applyState advances the watch observing active
func (c *Client) applyState(active dbus.ObjectPath, state uint32) []delivery {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, w := range c.watches {
		if w.active != active {
			continue
		}
		if w.finished {
			return nil
		}
		kind, ok := translateActiveState(state, w.available)
		if !ok {
			return nil
		}
		switch kind {
		case connect.EventAvailable:
			if w.available {
				return nil
			}
			w.available = true
			w.stopTimer()
		case connect.EventLost, connect.EventUnavailable:
			w.finished = true
			w.stopTimer()
		}
		return []delivery{{h: w.handler, ev: connect.Event{Kind: kind, Network: w.network(c.iface)}}}
	}
	return nil
}

func (c *Client) deviceChanged(changed map[string]dbus.Variant) []delivery {
	var out []delivery

	_, ip4 := changed["Ip4Config"]
	_, ip6 := changed["Ip6Config"]
	if ip4 || ip6 {
		link := c.linkProperties()
		for _, w := range c.liveWatches() {
			out = append(out, delivery{h: w.handler, ev: connect.Event{
				Kind:    connect.EventLinkPropertiesChanged,
				Network: w.network(c.iface),
				Link:    link,
			}})
		}
	}

	if v, ok := changed["Metered"]; ok {
		metered, _ := v.Value().(uint32)
		for _, w := range c.liveWatches() {
			out = append(out, delivery{h: w.handler, ev: connect.Event{
				Kind:    connect.EventCapabilitiesChanged,
				Network: w.network(c.iface),
				Capabilities: connect.Capabilities{
					Metered:  meteredValue(metered),
					Internet: w.req.Requires(connect.CapabilityInternet),
				},
			}})
		}
	}

	return out
}

func (c *Client) managerChanged(changed map[string]dbus.Variant) []delivery {
	v, ok := changed["WirelessEnabled"]
	if !ok {
		return nil
	}
	enabled, ok := v.Value().(bool)
	if !ok {
		return nil
	}

	var out []delivery
	for _, w := range c.liveWatches() {
		out = append(out, delivery{h: w.handler, ev: connect.Event{
			Kind:    connect.EventBlocked,
			Network: w.network(c.iface),
			Blocked: !enabled,
		}})
	}
	return out
}

// liveWatches returns a snapshot of watches whose network is up
func (c *Client) liveWatches() []watch {
	c.mu.Lock()
	defer c.mu.Unlock()

	var live []watch
	for _, w := range c.watches {
		if w.available && !w.finished {
			live = append(live, watch{req: w.req, handler: w.handler, active: w.active})
		}
	}
	return live
}

func (c *Client) linkProperties() connect.LinkProperties {
	if c.describe == nil {
		return connect.LinkProperties{Interface: c.iface}
	}
	link, err := c.describe(c.iface)
	if err != nil {
		logging.Debug("Link lookup failed", zap.String("interface", c.iface), zap.Error(err))
		return connect.LinkProperties{Interface: c.iface}
	}
	return link
}
