package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/apswitch/internal/config"
	"github.com/muurk/apswitch/internal/connect"
	"github.com/muurk/apswitch/internal/discovery"
	"github.com/muurk/apswitch/internal/logging"
	"github.com/muurk/apswitch/internal/logstream"
	"github.com/muurk/apswitch/internal/tui"
	"github.com/muurk/apswitch/internal/ui"
)

// Connect command flags
var (
	connectSSID       string
	connectBSSID      string
	connectPassphrase string
	askPassphrase     bool
	profileName       string
	autoUnregister    bool
	requestTimeout    int
	browseService     string
	probeServices     bool
	serveAddr         string
)

func init() {
	rootCmd.Flags().StringVarP(&profileName, "profile", "p", "", "Prefill the screen from a saved profile")
	rootCmd.Flags().StringVar(&serveAddr, "serve", "", "Stream the console log over WebSocket on this address (e.g. 127.0.0.1:8765)")

	connectCmd.Flags().StringVarP(&connectSSID, "ssid", "s", "", "Network name")
	connectCmd.Flags().StringVarP(&connectBSSID, "bssid", "b", "", "Access point hardware address (AA:BB:CC:DD:EE:FF)")
	connectCmd.Flags().StringVar(&connectPassphrase, "passphrase", "", "WPA2 passphrase (empty for an open network)")
	connectCmd.Flags().BoolVar(&askPassphrase, "ask-passphrase", false, "Prompt for the passphrase without echo")
	connectCmd.Flags().StringVarP(&profileName, "profile", "p", "", "Use a saved profile (flags override its fields)")
	connectCmd.Flags().BoolVar(&autoUnregister, "auto-unregister", false, "Stop observing after the first result (default from config)")
	connectCmd.Flags().IntVar(&requestTimeout, "timeout", 0, "Seconds to wait for the network (default from config, 45)")
	connectCmd.Flags().StringVar(&browseService, "browse", "", "Browse for this DNS-SD service once connected (e.g. _http._tcp)")
	connectCmd.Flags().BoolVar(&probeServices, "probe", false, "Send an HTTP GET to each browsed service through the bound link")
	connectCmd.Flags().StringVar(&serveAddr, "serve", "", "Stream the console log over WebSocket on this address")
	connectCmd.MarkFlagsMutuallyExclusive("passphrase", "ask-passphrase")

	rootCmd.AddCommand(connectCmd)
}

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect to an access point without the interactive screen",
	Long: `Request a transient connection to the access point with the given SSID and
BSSID, print each lifecycle event as it arrives, and keep apswitch's traffic
bound to the network while it is available.

The command exits when the request settles back to idle (the network was
lost or never became available) or on Ctrl+C, which releases the network.`,
	Example: `  # Open network
  apswitch connect --ssid "Deeper CHIRP+" --bssid AA:BB:CC:DD:EE:FF

  # WPA2 network, prompting for the passphrase
  apswitch connect -s Home -b 00-11-22-33-44-55 --ask-passphrase

  # Saved profile, then look for the device's web server
  apswitch connect --profile deeper --browse _http._tcp --probe

  # Mirror the console to a WebSocket
  apswitch connect --profile deeper --serve 127.0.0.1:8765`,
	RunE: runConnect,
}

// progressEvent is a handled event and the request state it produced
type progressEvent struct {
	event connect.Event
	state connect.State
}

func runConnect(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	t, err := resolveTarget(reg, profileName, connectSSID, connectBSSID)
	if err != nil {
		return err
	}

	passphrase := connectPassphrase
	if askPassphrase {
		passphrase, err = ui.ReadPassphrase("Passphrase: ")
		if err != nil {
			return err
		}
	}

	auto := reg.Preferences.AutoUnregister
	if cmd.Flags().Changed("auto-unregister") {
		auto = autoUnregister
	}
	timeout := reg.Preferences.Timeout()
	if requestTimeout > 0 {
		timeout = time.Duration(requestTimeout) * time.Second
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer := ui.NewPrinter(cmd.OutOrStdout())

	events := make(chan progressEvent, 64)
	log := connect.NewLog()
	b, err := openBackend(ctx, backendOptions{
		Interface:      interfaceFor(reg),
		Timeout:        timeout,
		AutoUnregister: auto,
		Log:            log,
		Notify: func(ev connect.Event, st connect.State) {
			select {
			case events <- progressEvent{event: ev, state: st}:
			default:
				logging.Warn("Dropped progress event", zap.Stringer("kind", ev.Kind))
			}
		},
	})
	if err != nil {
		printer.PrintError("NetworkManager unavailable", err)
		return err
	}
	defer b.Close()

	printer.PrintHeader("Connect", "apswitch connect",
		ui.Detail{Key: "SSID", Value: t.SSID},
		ui.Detail{Key: "BSSID", Value: t.BSSID},
		ui.Detail{Key: "Interface", Value: b.client.Interface()},
		ui.Detail{Key: "Timeout", Value: timeout.String()},
		ui.Detail{Key: "Auto-unregister", Value: fmt.Sprint(auto)},
	)

	followCtx, stopFollow := context.WithCancel(context.Background())
	followDone := make(chan struct{})
	go func() {
		printer.Follow(followCtx, log)
		close(followDone)
	}()
	defer func() {
		stopFollow()
		<-followDone
	}()

	addr := serveAddr
	if addr == "" {
		addr = reg.Preferences.LogStreamAddr
	}
	if addr != "" {
		srv := logstream.New(log, addr)
		if err := srv.Start(); err != nil {
			return err
		}
		defer shutdownStream(srv)
		log.Append(fmt.Sprintf("log stream on ws://%s%s", srv.Addr(), logstream.Path))
	}

	for _, perr := range b.ctrl.Preflight(ctx) {
		if connect.IsScanDenied(perr) {
			printer.PrintWarning("Scanning not permitted", ui.Detail{Key: "Hint", Value: connect.TroubleshootingHint(perr)[0]})
		}
	}

	if err := b.ctrl.Connect(ctx, t.SSID, t.BSSID, passphrase); err != nil {
		printer.PrintError("Connect failed", err)
		return err
	}

	result, err := waitForResult(ctx, b, events, printer, t)
	recordResult(reg, t.Profile, result)
	return err
}

// waitForResult follows the request until it settles or ctx is cancelled
// and returns the last meaningful event kind
func waitForResult(ctx context.Context, b *backend, events <-chan progressEvent, printer *ui.Printer, t target) (string, error) {
	result := ""
	for {
		select {
		case <-ctx.Done():
			logging.Info("Interrupted, releasing network")
			return result, nil

		case pe := <-events:
			switch pe.event.Kind {
			case connect.EventAvailable:
				result = "available"
				printer.PrintSuccess("Connected to "+t.SSID,
					ui.Detail{Key: "Network", Value: pe.event.Network.String()},
					ui.Detail{Key: "Bound", Value: b.binder.Interface()},
				)
				if browseService != "" {
					go browseAndProbe(ctx, printer, pe.event.Network.Interface)
				}
			case connect.EventLost:
				result = "lost"
			case connect.EventUnavailable:
				result = "unavailable"
			}

			if pe.state == connect.StateIdle {
				if result == "unavailable" {
					err := connect.NewUnavailableError(fmt.Sprintf("%s (%s) did not become available", t.SSID, t.BSSID), nil)
					printer.PrintError("Connect failed", err)
					return result, err
				}
				return result, nil
			}
		}
	}
}

func browseAndProbe(ctx context.Context, printer *ui.Printer, iface string) {
	services, err := discovery.Browse(ctx, discovery.Options{Interface: iface, Service: browseService})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			printer.PrintError("Browse failed", err)
		}
		return
	}
	printServices(printer, services)
	if probeServices {
		for _, svc := range services {
			printer.Println(probe(ctx, svc))
		}
	}
}

func recordResult(reg *config.Registry, profile, result string) {
	if profile == "" || result == "" {
		return
	}
	reg.RecordResult(profile, result)
	if err := saveRegistry(reg); err != nil {
		logging.Warn("Failed to save profile result", zap.String("profile", profile), zap.Error(err))
	}
}

func shutdownStream(srv *logstream.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Debug("Log stream shutdown", zap.Error(err))
	}
}

// runScreen launches the interactive screen. A backend that cannot start
// still shows the screen with a notice.
func runScreen(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	t, err := resolveTarget(reg, profileName, "", "")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	opts := tui.Options{
		SSID:         t.SSID,
		BSSID:        t.BSSID,
		RequiredSSID: reg.Preferences.RequiredSSID,
		Context:      ctx,
	}

	b, err := openBackend(ctx, backendOptions{
		Interface:      interfaceFor(reg),
		Timeout:        reg.Preferences.Timeout(),
		AutoUnregister: reg.Preferences.AutoUnregister,
	})
	if err != nil {
		logging.Warn("Connectivity backend unavailable", zap.Error(err))
		opts.Unsupported = err
		return tui.Run(opts)
	}
	defer b.Close()
	opts.Controller = b.ctrl

	addr := serveAddr
	if addr == "" {
		addr = reg.Preferences.LogStreamAddr
	}
	if addr != "" {
		srv := logstream.New(b.ctrl.Log(), addr)
		if err := srv.Start(); err != nil {
			return err
		}
		defer shutdownStream(srv)
	}

	if err := tui.Run(opts); err != nil {
		return err
	}

	// the flag may have been toggled on screen
	if reg.Preferences.AutoUnregister != b.ctrl.AutoUnregister() {
		reg.Preferences.AutoUnregister = b.ctrl.AutoUnregister()
		if err := saveRegistry(reg); err != nil {
			logging.Warn("Failed to save preferences", zap.Error(err))
		}
	}
	return nil
}
