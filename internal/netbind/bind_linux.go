//go:build linux

package netbind

import (
	"fmt"
	"syscall"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"github.com/muurk/apswitch/internal/connect"
)

func linkExists(name string) error {
	_, err := netlink.LinkByName(name)
	return err
}

// bindControl sets SO_BINDTODEVICE on every socket the dialer creates
func bindControl(iface string) func(network, address string, c syscall.RawConn) error {
	return func(network, address string, c syscall.RawConn) error {
		var sockErr error
		err := c.Control(func(fd uintptr) {
			sockErr = unix.SetsockoptString(int(fd), unix.SOL_SOCKET, unix.SO_BINDTODEVICE, iface)
		})
		if err != nil {
			return err
		}
		if sockErr != nil {
			return fmt.Errorf("bind socket to %s: %w", iface, sockErr)
		}
		return nil
	}
}

// Describe returns the link properties of iface
func Describe(iface string) (connect.LinkProperties, error) {
	link, err := netlink.LinkByName(iface)
	if err != nil {
		return connect.LinkProperties{}, fmt.Errorf("lookup %s: %w", iface, err)
	}

	attrs := link.Attrs()
	props := connect.LinkProperties{
		Interface: attrs.Name,
		MTU:       attrs.MTU,
	}
	if attrs.HardwareAddr != nil {
		props.HardwareAddr = connect.FormatBSSID(attrs.HardwareAddr)
	}

	addrs, err := netlink.AddrList(link, netlink.FAMILY_ALL)
	if err != nil {
		return props, fmt.Errorf("list addresses on %s: %w", iface, err)
	}
	for _, a := range addrs {
		if a.IPNet != nil {
			props.Addresses = append(props.Addresses, a.IPNet.String())
		}
	}
	return props, nil
}
