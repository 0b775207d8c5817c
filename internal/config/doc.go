// Package config provides user configuration management for apswitch.
//
// A YAML file stores saved access point profiles (name, SSID, BSSID and the
// outcome of the last request) and application preferences.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/apswitch/config.yaml or $HOME/.config/apswitch/config.yaml
//   - macOS: $HOME/.config/apswitch/config.yaml
//   - Windows: %LOCALAPPDATA%\apswitch\config.yaml
//
// # Security
//
// Wi-Fi passphrases are never stored. They are entered on the screen or
// prompted by the CLI for every request.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if _, err := registry.SaveProfile("deeper", "Deeper CHIRP+", "AA:BB:CC:DD:EE:FF"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Writes go through a temporary file and are renamed into place
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
package config
