// Package discovery browses DNS-SD services over mDNS.
//
// After apswitch binds to an access point, the services that access point
// (or devices behind it) advertise can be listed without knowing their
// addresses. Queries are restricted to the bound interface so answers from
// other networks do not leak in.
//
// # Usage Example
//
//	services, err := discovery.Browse(ctx, discovery.Options{
//	    Interface: "wlan0",
//	    Service:   "_http._tcp",
//	    Timeout:   5 * time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, svc := range services {
//	    fmt.Println(svc)
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Firewall must allow mDNS (UDP port 5353)
package discovery
