package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Service is one DNS-SD service instance found on the bound network
type Service struct {
	// Instance is the service instance name (e.g., "Deeper CHIRP+")
	Instance string

	// HostName is the mDNS hostname (e.g., "deeper.local.")
	HostName string

	// IP is the preferred address, IPv4 when available
	IP string

	// Port is the service port
	Port int

	// Metadata contains the TXT record key/value pairs
	Metadata map[string]string

	// DiscoveredAt is when the service was seen
	DiscoveredAt time.Time
}

// String returns a human-readable representation of the service
func (s *Service) String() string {
	return fmt.Sprintf("%s (%s) at %s", s.Instance, s.HostName, s.Addr())
}

// Addr returns the host:port address of the service
func (s *Service) Addr() string {
	return net.JoinHostPort(s.IP, strconv.Itoa(s.Port))
}

// BaseURL returns an HTTP base URL for the service
func (s *Service) BaseURL() string {
	return "http://" + s.Addr()
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (s *Service) GetMetadata(key string) string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}
