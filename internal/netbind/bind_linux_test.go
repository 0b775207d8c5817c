//go:build linux

package netbind

import "testing"

func TestDescribeLoopback(t *testing.T) {
	props, err := Describe("lo")
	if err != nil {
		t.Skipf("netlink unavailable: %v", err)
	}
	if props.Interface != "lo" {
		t.Errorf("Interface = %q", props.Interface)
	}
	if props.MTU <= 0 {
		t.Errorf("MTU = %d", props.MTU)
	}
}

func TestDescribeUnknown(t *testing.T) {
	if _, err := Describe("apswitch-none0"); err == nil {
		t.Error("Describe() of a missing interface should fail")
	}
}

func TestLinkExists(t *testing.T) {
	if err := linkExists("lo"); err != nil {
		t.Skipf("netlink unavailable: %v", err)
	}
	if err := linkExists("apswitch-none0"); err == nil {
		t.Error("linkExists() of a missing interface should fail")
	}
}
