package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/apswitch/internal/config"
	"github.com/muurk/apswitch/internal/connect"
	"github.com/muurk/apswitch/internal/logging"
	"github.com/muurk/apswitch/internal/netbind"
	"github.com/muurk/apswitch/internal/netmgr"
)

// backend bundles the NetworkManager client, the process binder and the
// controller driving them
type backend struct {
	client  *netmgr.Client
	binder  *netbind.Binder
	ctrl    *connect.Controller
	restore func()
}

type backendOptions struct {
	Interface      string
	Timeout        time.Duration
	AutoUnregister bool
	Log            *connect.Log
	Notify         func(connect.Event, connect.State)
}

// openBackend connects to NetworkManager and installs the process binder
// into http.DefaultTransport
func openBackend(ctx context.Context, opts backendOptions) (*backend, error) {
	binder := netbind.New()

	client, err := netmgr.New(ctx, netmgr.Options{
		Interface: opts.Interface,
		Binder:    binder,
		Describe:  netbind.Describe,
	})
	if err != nil {
		return nil, err
	}

	b := &backend{
		client:  client,
		binder:  binder,
		restore: binder.Install(),
	}
	b.ctrl = connect.NewController(connect.Options{
		Connectivity:   client,
		Wifi:           client,
		Scan:           client,
		Timeout:        opts.Timeout,
		AutoUnregister: opts.AutoUnregister,
		Log:            opts.Log,
		Notify:         opts.Notify,
	})
	return b, nil
}

// Close releases the outstanding request, restores the default dialer and
// disconnects from the bus
func (b *backend) Close() {
	b.ctrl.Release()
	b.restore()
	if err := b.client.Close(); err != nil {
		logging.Debug("Failed to close system bus connection", zap.Error(err))
	}
}

// interfaceFor picks the Wi-Fi interface: flag, then preference
func interfaceFor(reg *config.Registry) string {
	if ifaceName != "" {
		return ifaceName
	}
	return reg.Preferences.Interface
}

// target is the access point a command acts on
type target struct {
	Profile string
	SSID    string
	BSSID   string
}

// resolveTarget merges a saved profile with explicit flags; flags win.
// Validation is left to the controller so input errors surface the same
// way in every front end.
func resolveTarget(reg *config.Registry, profile, ssid, bssid string) (target, error) {
	t := target{Profile: profile}

	if profile != "" {
		p := reg.GetProfile(profile)
		if p == nil {
			names := reg.ProfileNames()
			if len(names) == 0 {
				return t, fmt.Errorf("profile %q not found (no profiles saved)", profile)
			}
			return t, fmt.Errorf("profile %q not found (saved: %s)", profile, strings.Join(names, ", "))
		}
		t.SSID, t.BSSID = p.SSID, p.BSSID
	}

	if ssid != "" {
		t.SSID = ssid
	}
	if bssid != "" {
		t.BSSID = bssid
	}
	return t, nil
}
