// Package logging provides structured logging for apswitch.
//
// This package wraps a global zap logger with convenience functions for the
// events apswitch cares about: network requests, lifecycle callbacks, process
// binding changes and observer deregistration.
//
// # Silent by Default
//
// Logging is disabled unless a level is given with --log-level or the
// APSWITCH_LOG_LEVEL environment variable. The terminal screen and the CLI
// own stdout, so enabled logs always go to stderr:
//
//	APSWITCH_LOG_LEVEL=debug apswitch connect --ssid Deeper --bssid AA:BB:CC:DD:EE:FF 2>apswitch.log
//
// # Specialized Logging
//
//	logging.LogRequest(ssid, bssid, "wpa2-psk", 45)
//	logging.LogNetworkEvent("available", "/org/freedesktop/NetworkManager/ActiveConnection/7", "wlan0")
//	logging.LogBinding("wlan0", nil)
//	logging.LogUnregister(3, "auto-unregister")
//
// Every console line the controller shows the user is mirrored at info
// level through LogConsoleLine.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once Initialize has
// returned. The underlying zap logger handles synchronization.
package logging
