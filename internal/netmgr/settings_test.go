package netmgr

import (
	"bytes"
	"testing"

	"github.com/muurk/apswitch/internal/connect"
)

func mustRequest(t *testing.T, ssid, bssid, pass string) connect.NetworkRequest {
	t.Helper()
	req, err := connect.Validate(ssid, bssid, pass)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	return connect.NewNetworkRequest(req)
}

func TestConnectionSettingsOpen(t *testing.T) {
	s := connectionSettings(mustRequest(t, "Deeper CHIRP+", "AA:BB:CC:DD:EE:FF", ""))

	wifi := s["802-11-wireless"]
	if ssid, _ := wifi["ssid"].Value().([]byte); string(ssid) != "Deeper CHIRP+" {
		t.Errorf("ssid = %q", ssid)
	}
	bssid, _ := wifi["bssid"].Value().([]byte)
	if !bytes.Equal(bssid, []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}) {
		t.Errorf("bssid = %x", bssid)
	}
	if mode, _ := wifi["mode"].Value().(string); mode != "infrastructure" {
		t.Errorf("mode = %q", mode)
	}

	if _, ok := s["802-11-wireless-security"]; ok {
		t.Error("open network must not carry a security section")
	}
	if auto, _ := s["connection"]["autoconnect"].Value().(bool); auto {
		t.Error("autoconnect should be false")
	}
}

func TestConnectionSettingsWPA2(t *testing.T) {
	s := connectionSettings(mustRequest(t, "Deeper", "00-11-22-33-44-55", "secret123"))

	sec, ok := s["802-11-wireless-security"]
	if !ok {
		t.Fatal("missing security section")
	}
	if km, _ := sec["key-mgmt"].Value().(string); km != "wpa-psk" {
		t.Errorf("key-mgmt = %q", km)
	}
	if psk, _ := sec["psk"].Value().(string); psk != "secret123" {
		t.Errorf("psk = %q", psk)
	}
}

func TestConnectionSettingsNeverDefault(t *testing.T) {
	nr := mustRequest(t, "Deeper", "AA:BB:CC:DD:EE:FF", "")
	s := connectionSettings(nr)
	for _, family := range []string{"ipv4", "ipv6"} {
		if nd, _ := s[family]["never-default"].Value().(bool); !nd {
			t.Errorf("%s.never-default should be true", family)
		}
	}

	nr.RemovedCapabilities = nil
	s = connectionSettings(nr)
	if _, ok := s["ipv4"]["never-default"]; ok {
		t.Error("never-default should be unset when internet is required")
	}
}

func TestActivationOptions(t *testing.T) {
	opts := activationOptions()
	if v, _ := opts["persist"].Value().(string); v != "volatile" {
		t.Errorf("persist = %q", v)
	}
	if v, _ := opts["bind-activation"].Value().(string); v != "dbus-client" {
		t.Errorf("bind-activation = %q", v)
	}
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		version     string
		unsupported bool
	}{
		{"1.16.0", false},
		{"1.22.10", false},
		{"1.46.0", false},
		{"2.0", false},
		{"1.14.6", true},
		{"1.8", true},
		{"0.9.10", true},
		{"garbage", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			err := checkVersion(tt.version)
			if tt.unsupported != (err != nil) {
				t.Fatalf("checkVersion(%q) = %v", tt.version, err)
			}
			if err != nil && !connect.IsUnsupported(err) {
				t.Errorf("error should be unsupported, got %v", err)
			}
		})
	}
}

func TestMinVersionAccepted(t *testing.T) {
	if err := checkVersion(MinVersion() + ".0"); err != nil {
		t.Errorf("MinVersion() %s should pass checkVersion: %v", MinVersion(), err)
	}
}

func TestTranslateActiveState(t *testing.T) {
	tests := []struct {
		name      string
		state     uint32
		available bool
		want      connect.EventKind
		ok        bool
	}{
		{"activating", activeStateActivating, false, 0, false},
		{"activated", activeStateActivated, false, connect.EventAvailable, true},
		{"deactivating before available", activeStateDeactivating, false, 0, false},
		{"deactivating after available", activeStateDeactivating, true, connect.EventLosing, true},
		{"deactivated after available", activeStateDeactivated, true, connect.EventLost, true},
		{"deactivated before available", activeStateDeactivated, false, connect.EventUnavailable, true},
		{"unknown", activeStateUnknown, true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := translateActiveState(tt.state, tt.available)
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("translateActiveState(%d, %v) = %v, %v; want %v, %v", tt.state, tt.available, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestPermitted(t *testing.T) {
	for result, want := range map[string]bool{"yes": true, "auth": true, "no": false, "": false} {
		if got := permitted(result); got != want {
			t.Errorf("permitted(%q) = %v, want %v", result, got, want)
		}
	}
}
