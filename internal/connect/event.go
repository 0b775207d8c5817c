package connect

import (
	"fmt"
	"strings"
)

// EventKind tags a lifecycle callback from the connectivity service
type EventKind int

const (
	EventAvailable EventKind = iota
	EventLost
	EventUnavailable
	EventBlocked
	EventCapabilitiesChanged
	EventLinkPropertiesChanged
	// EventLosing is sent while the network is being torn down, before Lost
	EventLosing
)

// String returns the event name used in log lines
func (k EventKind) String() string {
	switch k {
	case EventAvailable:
		return "available"
	case EventLost:
		return "lost"
	case EventUnavailable:
		return "unavailable"
	case EventBlocked:
		return "blocked-status-changed"
	case EventCapabilitiesChanged:
		return "capabilities-changed"
	case EventLinkPropertiesChanged:
		return "link-properties-changed"
	case EventLosing:
		return "losing"
	default:
		return fmt.Sprintf("EventKind(%d)", k)
	}
}

// Network is an opaque handle for a network the service made available
type Network struct {
	// ID identifies the network within the connectivity service
	// (a NetworkManager active connection object path)
	ID string

	// Interface is the kernel interface carrying the network (e.g. "wlan0")
	Interface string
}

// String returns a short description of the network
func (n Network) String() string {
	if n.Interface == "" {
		return n.ID
	}
	return fmt.Sprintf("%s@%s", n.Interface, n.ID)
}

// Capabilities is the capability snapshot delivered with EventCapabilitiesChanged
type Capabilities struct {
	Metered  bool
	Internet bool
}

// LinkProperties is the snapshot delivered with EventLinkPropertiesChanged
type LinkProperties struct {
	Interface    string
	MTU          int
	HardwareAddr string
	Addresses    []string
}

// Event is a single callback from the connectivity service
type Event struct {
	Kind         EventKind
	Network      Network
	Blocked      bool
	Capabilities Capabilities
	Link         LinkProperties
}

// LogLine renders the event as the console line appended to the Log
func (e Event) LogLine() string {
	switch e.Kind {
	case EventUnavailable:
		return "unavailable: no matching network"
	case EventBlocked:
		return fmt.Sprintf("blocked-status-changed: network=%s blocked=%t", e.Network, e.Blocked)
	case EventCapabilitiesChanged:
		return fmt.Sprintf("capabilities-changed: network=%s metered=%t internet=%t",
			e.Network, e.Capabilities.Metered, e.Capabilities.Internet)
	case EventLinkPropertiesChanged:
		addrs := "none"
		if len(e.Link.Addresses) > 0 {
			addrs = strings.Join(e.Link.Addresses, ",")
		}
		return fmt.Sprintf("link-properties-changed: network=%s addrs=%s", e.Network, addrs)
	default:
		return fmt.Sprintf("%s: network=%s", e.Kind, e.Network)
	}
}

// Handler receives events for one registered request
type Handler func(Event)
