// Apswitch connects the Wi-Fi radio to one specific access point.
//
// The access point is identified by SSID and BSSID and is optionally
// secured with a WPA2 passphrase. Once NetworkManager reports the network
// available, apswitch binds its own traffic to that interface, so local
// services on a hotspot without internet access stay reachable.
//
// Usage:
//
//	apswitch [command] [flags]
//
// Running without arguments launches the interactive connect screen.
// See 'apswitch --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/apswitch/internal/config"
	"github.com/muurk/apswitch/internal/logging"
	"github.com/muurk/apswitch/internal/netmgr"
	"github.com/muurk/apswitch/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logging.Sync()
		os.Exit(1)
	}
	logging.Sync()
}

// Global flags
var (
	logLevel   string
	configPath string
	ifaceName  string
)

var rootCmd = &cobra.Command{
	Use:   "apswitch",
	Short: "Connect to one specific Wi-Fi access point",
	Long: `Connect the Wi-Fi radio to one specific access point, identified by SSID
and BSSID, and bind apswitch's own traffic to that connection.

The request is transient: NetworkManager does not store the connection and
drops it when apswitch exits. The target network is not expected to reach
the internet.

If no command is specified, the interactive connect screen launches.`,
	Version:       version.Get().Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
	RunE: runScreen,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); default is $"+logging.LogLevelEnvVar+" or silent")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default is the user config directory)")
	rootCmd.PersistentFlags().StringVarP(&ifaceName, "interface", "i", "", "Wi-Fi interface (default is the configured or first Wi-Fi device)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "apswitch %s\n", version.Full())
		fmt.Fprintf(out, "requires NetworkManager %s or newer\n", netmgr.MinVersion())
	},
}

// loadRegistry reads the config file named by --config, or the default one
func loadRegistry() (*config.Registry, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.LoadRegistry()
}

// saveRegistry writes reg back to where it was loaded from
func saveRegistry(reg *config.Registry) error {
	if configPath != "" {
		return reg.SaveTo(configPath)
	}
	return reg.Save()
}
