package connect

import (
	"context"
	"time"
)

// DefaultRequestTimeout is how long a request may stay pending before the
// service reports it unavailable
const DefaultRequestTimeout = 45 * time.Second

// Registration identifies a registered observer within a Connectivity service
type Registration uint64

// Connectivity is the platform connectivity service
type Connectivity interface {
	// RequestNetwork asks for a transient network matching req. Events for
	// the request are delivered to h, possibly from another goroutine, until
	// the registration is removed with Unregister. If nothing matches within
	// timeout the service delivers EventUnavailable.
	RequestNetwork(ctx context.Context, req NetworkRequest, h Handler, timeout time.Duration) (Registration, error)

	// BindProcessToNetwork routes process traffic through n. A nil n
	// reverts to the default network.
	BindProcessToNetwork(n *Network) error

	// Unregister stops event delivery for reg. Unregistering an unknown or
	// already removed registration is not an error.
	Unregister(reg Registration) error
}

// ConnectionInfo describes the current Wi-Fi association
type ConnectionInfo struct {
	SSID      string
	BSSID     string
	Interface string
}

// Connected reports whether the info describes an association
func (ci ConnectionInfo) Connected() bool {
	return ci.BSSID != ""
}

// WifiState is the platform Wi-Fi state service
type WifiState interface {
	WifiEnabled(ctx context.Context) (bool, error)
	ConnectionInfo(ctx context.Context) (ConnectionInfo, error)
}

// ScanGate reports whether access point scanning is currently permitted.
// It stands in for the location prerequisite some platforms impose.
type ScanGate interface {
	ScanPermitted(ctx context.Context) (bool, error)
}
