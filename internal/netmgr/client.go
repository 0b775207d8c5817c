package netmgr

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"

	"github.com/muurk/apswitch/internal/connect"
	"github.com/muurk/apswitch/internal/logging"
)

const (
	busName       = "org.freedesktop.NetworkManager"
	managerPath   = dbus.ObjectPath("/org/freedesktop/NetworkManager")
	managerIface  = "org.freedesktop.NetworkManager"
	deviceIface   = "org.freedesktop.NetworkManager.Device"
	wirelessIface = "org.freedesktop.NetworkManager.Device.Wireless"
	apIface       = "org.freedesktop.NetworkManager.AccessPoint"
	activeIface   = "org.freedesktop.NetworkManager.Connection.Active"
	propsIface    = "org.freedesktop.DBus.Properties"
	propsSignal   = propsIface + ".PropertiesChanged"
	stateSignal   = activeIface + ".StateChanged"

	scanPermission = "org.freedesktop.NetworkManager.wifi.scan"
)

// Binder routes process traffic through a network
type Binder interface {
	Bind(n connect.Network) error
	Unbind() error
}

// LinkDescriber returns link properties for an interface
type LinkDescriber func(iface string) (connect.LinkProperties, error)

// Options configures a Client
type Options struct {
	// Interface selects the Wi-Fi device; empty means the first one found
	Interface string
	// Binder handles BindProcessToNetwork; required for binding
	Binder Binder
	// Describe fills LinkPropertiesChanged events; optional
	Describe LinkDescriber
}

// Client talks to NetworkManager over the system bus. It implements
// connect.Connectivity, connect.WifiState and connect.ScanGate.
type Client struct {
	conn     *dbus.Conn
	device   dbus.ObjectPath
	iface    string
	version  string
	binder   Binder
	describe LinkDescriber

	signals chan *dbus.Signal

	// deactivateFn replaces the DeactivateConnection call in tests
	deactivateFn func(ctx context.Context, active dbus.ObjectPath) error
	// stateFn replaces the active connection State read in tests
	stateFn func(ctx context.Context, active dbus.ObjectPath) (uint32, error)

	mu      sync.Mutex
	nextReg connect.Registration
	watches map[connect.Registration]*watch
}

// New connects to the system bus and selects the Wi-Fi device.
// A missing or outdated NetworkManager yields an unsupported error.
func New(ctx context.Context, opts Options) (*Client, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, connect.NewUnsupportedError("cannot reach the system bus", err)
	}

	c := newClient(opts)
	c.conn = conn

	if err := c.init(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	if err := c.watchGlobal(); err != nil {
		conn.Close()
		return nil, connect.NewBackendError("failed to subscribe to NetworkManager signals", err)
	}
	c.conn.Signal(c.signals)
	go c.dispatch()

	logging.Info("Connected to NetworkManager",
		zap.String("version", c.version),
		zap.String("interface", c.iface),
		zap.String("device", string(c.device)),
	)
	return c, nil
}

func newClient(opts Options) *Client {
	return &Client{
		iface:    opts.Interface,
		binder:   opts.Binder,
		describe: opts.Describe,
		signals:  make(chan *dbus.Signal, 32),
		watches:  make(map[connect.Registration]*watch),
	}
}

func (c *Client) init(ctx context.Context) error {
	var names []string
	if err := c.conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		return connect.NewBackendError("failed to list bus names", err)
	}
	found := false
	for _, n := range names {
		if n == busName {
			found = true
			break
		}
	}
	if !found {
		return connect.NewUnsupportedError("NetworkManager is not running on the system bus", nil)
	}

	version, err := c.getString(ctx, managerPath, managerIface, "Version")
	if err != nil {
		return connect.NewBackendError("failed to read NetworkManager version", err)
	}
	if err := checkVersion(version); err != nil {
		return err
	}
	c.version = version

	return c.findDevice(ctx)
}

// findDevice picks the named Wi-Fi device, or the first one
func (c *Client) findDevice(ctx context.Context) error {
	var devices []dbus.ObjectPath
	if err := c.conn.Object(busName, managerPath).CallWithContext(ctx, managerIface+".GetDevices", 0).Store(&devices); err != nil {
		return connect.NewBackendError("failed to list network devices", err)
	}

	for _, dev := range devices {
		devType, err := c.getUint32(ctx, dev, deviceIface, "DeviceType")
		if err != nil || devType != deviceTypeWifi {
			continue
		}
		name, err := c.getString(ctx, dev, deviceIface, "Interface")
		if err != nil {
			continue
		}
		if c.iface == "" || c.iface == name {
			c.device = dev
			c.iface = name
			return nil
		}
	}

	if c.iface != "" {
		return connect.NewBackendError(fmt.Sprintf("Wi-Fi device %s not found", c.iface), nil)
	}
	return connect.NewBackendError("no Wi-Fi device found", nil)
}

// Close drops the bus connection. Activations bound to this client are
// torn down by NetworkManager when the connection goes away.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Version returns the NetworkManager version string
func (c *Client) Version() string { return c.version }

// Interface returns the selected Wi-Fi interface name
func (c *Client) Interface() string { return c.iface }

// --- property helpers ---

func (c *Client) getProp(ctx context.Context, path dbus.ObjectPath, iface, prop string) (dbus.Variant, error) {
	obj := c.conn.Object(busName, path)
	var v dbus.Variant
	err := obj.CallWithContext(ctx, propsIface+".Get", 0, iface, prop).Store(&v)
	return v, err
}

func (c *Client) getBool(ctx context.Context, path dbus.ObjectPath, iface, prop string) (bool, error) {
	v, err := c.getProp(ctx, path, iface, prop)
	if err != nil {
		return false, err
	}
	val, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("property %s is not bool", prop)
	}
	return val, nil
}

func (c *Client) getString(ctx context.Context, path dbus.ObjectPath, iface, prop string) (string, error) {
	v, err := c.getProp(ctx, path, iface, prop)
	if err != nil {
		return "", err
	}
	val, ok := v.Value().(string)
	if !ok {
		return "", fmt.Errorf("property %s is not string", prop)
	}
	return val, nil
}

func (c *Client) getUint32(ctx context.Context, path dbus.ObjectPath, iface, prop string) (uint32, error) {
	v, err := c.getProp(ctx, path, iface, prop)
	if err != nil {
		return 0, err
	}
	val, ok := v.Value().(uint32)
	if !ok {
		return 0, fmt.Errorf("property %s is not uint32", prop)
	}
	return val, nil
}

func (c *Client) getPath(ctx context.Context, path dbus.ObjectPath, iface, prop string) (dbus.ObjectPath, error) {
	v, err := c.getProp(ctx, path, iface, prop)
	if err != nil {
		return "", err
	}
	val, ok := v.Value().(dbus.ObjectPath)
	if !ok {
		return "", fmt.Errorf("property %s is not an object path", prop)
	}
	return val, nil
}

// --- connect.WifiState ---

// WifiEnabled reports whether the radio is on in software and hardware
func (c *Client) WifiEnabled(ctx context.Context) (bool, error) {
	enabled, err := c.getBool(ctx, managerPath, managerIface, "WirelessEnabled")
	if err != nil {
		return false, fmt.Errorf("read WirelessEnabled: %w", err)
	}
	hw, err := c.getBool(ctx, managerPath, managerIface, "WirelessHardwareEnabled")
	if err != nil {
		return false, fmt.Errorf("read WirelessHardwareEnabled: %w", err)
	}
	return enabled && hw, nil
}

// ConnectionInfo describes the access point the Wi-Fi device is associated with
func (c *Client) ConnectionInfo(ctx context.Context) (connect.ConnectionInfo, error) {
	info := connect.ConnectionInfo{Interface: c.iface}

	ap, err := c.getPath(ctx, c.device, wirelessIface, "ActiveAccessPoint")
	if err != nil {
		return info, fmt.Errorf("read ActiveAccessPoint: %w", err)
	}
	if ap == "/" || ap == "" {
		return info, nil
	}

	ssid, err := c.getProp(ctx, ap, apIface, "Ssid")
	if err != nil {
		return info, fmt.Errorf("read Ssid: %w", err)
	}
	if raw, ok := ssid.Value().([]byte); ok {
		info.SSID = string(raw)
	}

	info.BSSID, err = c.getString(ctx, ap, apIface, "HwAddress")
	if err != nil {
		return info, fmt.Errorf("read HwAddress: %w", err)
	}
	return info, nil
}

// --- connect.ScanGate ---

// ScanPermitted reports whether the caller holds the wifi.scan permission
func (c *Client) ScanPermitted(ctx context.Context) (bool, error) {
	var perms map[string]string
	if err := c.conn.Object(busName, managerPath).CallWithContext(ctx, managerIface+".GetPermissions", 0).Store(&perms); err != nil {
		return false, fmt.Errorf("get permissions: %w", err)
	}
	return permitted(perms[scanPermission]), nil
}

// permitted reports whether a polkit result allows the action
func permitted(result string) bool {
	return result == "yes" || result == "auth"
}

// --- connect.Connectivity (binding) ---

// BindProcessToNetwork routes process traffic through n, or clears the
// binding when n is nil
func (c *Client) BindProcessToNetwork(n *connect.Network) error {
	if c.binder == nil {
		return fmt.Errorf("no process binder configured")
	}
	if n == nil {
		return c.binder.Unbind()
	}
	return c.binder.Bind(*n)
}
