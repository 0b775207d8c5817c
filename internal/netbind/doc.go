// Package netbind binds this process's outgoing traffic to one network
// interface.
//
// On Linux every socket created through Binder.DialContext gets
// SO_BINDTODEVICE for the bound interface. Binder.Install swaps the dialer
// of http.DefaultTransport so plain http.Get calls follow the binding too.
// Describe reads interface addresses over netlink.
package netbind
