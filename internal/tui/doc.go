// Package tui implements the apswitch connect screen using Bubble Tea.
//
// The screen has three inputs (SSID, BSSID and a masked passphrase), a
// status line showing the auto-unregister flag and the request state, a
// scrollable console that follows the controller Log, and a one-line toast
// for notifications that expires after ToastDuration.
//
// Key bindings:
//
//	enter      connect with the current fields
//	tab/↓      next field (shift+tab/↑ for the previous one)
//	ctrl+l     clear the console
//	ctrl+y     copy the BSSID of the current association
//	ctrl+t     toggle auto-unregister
//	pgup/pgdn  scroll the console
//	esc        quit
//
// When the connectivity backend is unavailable the screen still starts,
// shows a notice, and answers the connect action with a toast.
package tui
