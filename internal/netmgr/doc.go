// Package netmgr implements the apswitch platform services on top of
// NetworkManager, reached over the system D-Bus.
//
// A single Client provides connect.Connectivity, connect.WifiState and
// connect.ScanGate. Requests become volatile connection profiles activated
// with AddAndActivateConnection2, so nothing is written to disk and the
// activation ends when the process drops its bus connection.
//
// Signals are translated to connect events on one dispatch goroutine:
//
//	Connection.Active StateChanged  activated     -> available
//	                                deactivating  -> losing
//	                                deactivated   -> lost (or unavailable if never activated)
//	Device PropertiesChanged        Ip4Config/Ip6Config -> link-properties-changed
//	                                Metered             -> capabilities-changed
//	Manager PropertiesChanged       WirelessEnabled     -> blocked-status-changed
//
// NetworkManager 1.16 or newer is required.
package netmgr
