//go:build !linux

package netbind

import (
	"syscall"

	"github.com/muurk/apswitch/internal/connect"
)

func linkExists(string) error {
	return ErrUnsupported
}

func bindControl(string) func(network, address string, c syscall.RawConn) error {
	return func(string, string, syscall.RawConn) error {
		return ErrUnsupported
	}
}

// Describe is not available on this platform
func Describe(string) (connect.LinkProperties, error) {
	return connect.LinkProperties{}, ErrUnsupported
}
