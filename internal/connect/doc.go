// Package connect implements the connection controller for apswitch.
//
// The controller takes the three user-supplied fields (SSID, BSSID and an
// optional WPA2 passphrase), validates them, asks the platform connectivity
// service for a transient Wi-Fi association with exactly that access point,
// and records every lifecycle callback of the request in an append-only Log.
//
// # Collaborators
//
// The controller never talks to the operating system directly. Three small
// interfaces describe what it needs (see platform.go):
//
//   - Connectivity: request a network, bind process traffic, deregister
//   - WifiState: radio enabled query and current association info
//   - ScanGate: whether the caller is allowed to scan for access points
//
// The netmgr package implements all three on top of NetworkManager.
//
// # Request lifecycle
//
// Each call to RequestConnection creates one observer. Events from the
// connectivity service arrive as a tagged Event and are dispatched through a
// single handler:
//
//	Idle -> Requested -> Available -> Lost -> Idle
//	                  -> Unavailable -> Idle
//
// Available binds process traffic to the new network, Lost clears the
// binding and deregisters. When AutoUnregister is set the observer is also
// deregistered right after Available or Unavailable. Deregistration happens
// at most once; events delivered after it are dropped.
//
// # Usage Example
//
//	ctrl := connect.NewController(connect.Options{
//	    Connectivity: nm,
//	    Wifi:         nm,
//	    Scan:         nm,
//	})
//	if err := ctrl.Connect(ctx, "Deeper CHIRP+", "AA:BB:CC:DD:EE:FF", ""); err != nil {
//	    fmt.Println(connect.UserMessage(err))
//	}
//	for _, line := range ctrl.Log().Lines() {
//	    fmt.Println(line)
//	}
package connect
