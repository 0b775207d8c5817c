package netmgr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/muurk/apswitch/internal/connect"
)

// Minimum NetworkManager release with AddAndActivateConnection2 and the
// volatile/bind-activation options
const (
	minMajor = 1
	minMinor = 16
)

// MinVersion is the oldest NetworkManager release the client accepts
func MinVersion() string {
	return fmt.Sprintf("%d.%d", minMajor, minMinor)
}

// Active connection states (NMActiveConnectionState)
const (
	activeStateUnknown      uint32 = 0
	activeStateActivating   uint32 = 1
	activeStateActivated    uint32 = 2
	activeStateDeactivating uint32 = 3
	activeStateDeactivated  uint32 = 4
)

// deviceTypeWifi is NM_DEVICE_TYPE_WIFI
const deviceTypeWifi uint32 = 2

// connectionSettings builds the a{sa{sv}} settings for a transient
// infrastructure connection to exactly one access point
func connectionSettings(nr connect.NetworkRequest) map[string]map[string]dbus.Variant {
	req := nr.Specifier

	settings := map[string]map[string]dbus.Variant{
		"connection": {
			"id":          dbus.MakeVariant("apswitch " + req.SSID),
			"type":        dbus.MakeVariant("802-11-wireless"),
			"autoconnect": dbus.MakeVariant(false),
		},
		"802-11-wireless": {
			"ssid":  dbus.MakeVariant([]byte(req.SSID)),
			"bssid": dbus.MakeVariant([]byte(req.BSSID)),
			"mode":  dbus.MakeVariant("infrastructure"),
		},
		"ipv4": {
			"method": dbus.MakeVariant("auto"),
		},
		"ipv6": {
			"method": dbus.MakeVariant("auto"),
		},
	}

	if req.Security == connect.SecurityWPA2 {
		settings["802-11-wireless-security"] = map[string]dbus.Variant{
			"key-mgmt": dbus.MakeVariant("wpa-psk"),
			"psk":      dbus.MakeVariant(req.Passphrase),
		}
	}

	// a network without internet must not take over the default route
	if !nr.Requires(connect.CapabilityInternet) {
		settings["ipv4"]["never-default"] = dbus.MakeVariant(true)
		settings["ipv6"]["never-default"] = dbus.MakeVariant(true)
	}

	return settings
}

// activationOptions keeps the profile in memory only and ties the
// activation to this process's bus connection
func activationOptions() map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"persist":         dbus.MakeVariant("volatile"),
		"bind-activation": dbus.MakeVariant("dbus-client"),
	}
}

// checkVersion returns an unsupported error for releases older than 1.16
func checkVersion(version string) error {
	major, minor, err := parseVersion(version)
	if err != nil {
		return connect.NewUnsupportedError(fmt.Sprintf("unrecognised NetworkManager version %q", version), err)
	}
	if major < minMajor || (major == minMajor && minor < minMinor) {
		return connect.NewUnsupportedError(
			fmt.Sprintf("NetworkManager %s is too old (need %d.%d or newer)", version, minMajor, minMinor), nil)
	}
	return nil
}

func parseVersion(version string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(version), ".", 3)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("expected major.minor, got %q", version)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid major version: %w", err)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid minor version: %w", err)
	}
	return major, minor, nil
}

// translateActiveState maps an active connection state change to an event.
// ok is false for states that produce no event.
func translateActiveState(state uint32, wasAvailable bool) (kind connect.EventKind, ok bool) {
	switch state {
	case activeStateActivated:
		return connect.EventAvailable, true
	case activeStateDeactivating:
		if wasAvailable {
			return connect.EventLosing, true
		}
	case activeStateDeactivated:
		if wasAvailable {
			return connect.EventLost, true
		}
		return connect.EventUnavailable, true
	}
	return 0, false
}

// meteredValue reports whether an NMMetered value means metered
// (yes or guess-yes)
func meteredValue(v uint32) bool {
	return v == 1 || v == 3
}
