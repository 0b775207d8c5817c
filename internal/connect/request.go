package connect

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

// MaxSSIDLength is the 802.11 limit on an SSID, in bytes
const MaxSSIDLength = 32

// macPattern matches six hex octets separated by ':' or '-'
var macPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}([0-9A-Fa-f]{2})$`)

// Security identifies how the target access point is secured
type Security int

const (
	// SecurityOpen is an unsecured network
	SecurityOpen Security = iota
	// SecurityWPA2 is a WPA2 personal network secured by a passphrase
	SecurityWPA2
)

// String returns a human-readable name for the security mode
func (s Security) String() string {
	switch s {
	case SecurityOpen:
		return "open"
	case SecurityWPA2:
		return "wpa2-psk"
	default:
		return fmt.Sprintf("Security(%d)", s)
	}
}

// Request describes the access point the user asked to join.
// It is built fresh for every attempt and never persisted.
type Request struct {
	SSID       string
	BSSID      net.HardwareAddr
	Passphrase string
	Security   Security
}

// String returns a log-safe description of the request (no passphrase)
func (r Request) String() string {
	return fmt.Sprintf("%s (%s, %s)", r.SSID, FormatBSSID(r.BSSID), r.Security)
}

// IsMacValid reports whether s is six hex octets joined by ':' or '-'
func IsMacValid(s string) bool {
	return macPattern.MatchString(s)
}

// FormatBSSID renders a hardware address in upper-case colon notation
func FormatBSSID(addr net.HardwareAddr) string {
	return strings.ToUpper(addr.String())
}

// Validate checks the user input and builds a Request.
// The passphrase may be blank, in which case an open request is returned.
func Validate(ssid, hardwareAddress, passphrase string) (Request, error) {
	if strings.TrimSpace(ssid) == "" {
		return Request{}, NewEmptyFieldError("ssid")
	}
	if strings.TrimSpace(hardwareAddress) == "" {
		return Request{}, NewEmptyFieldError("bssid")
	}
	if len(ssid) > MaxSSIDLength {
		return Request{}, NewInvalidSSIDError(ssid)
	}
	if !IsMacValid(hardwareAddress) {
		return Request{}, NewInvalidAddressError(hardwareAddress)
	}

	// net.ParseMAC accepts both separators used by the pattern above
	addr, err := net.ParseMAC(hardwareAddress)
	if err != nil {
		return Request{}, NewInvalidAddressError(hardwareAddress)
	}

	if strings.TrimSpace(passphrase) == "" {
		return Request{SSID: ssid, BSSID: addr, Security: SecurityOpen}, nil
	}
	return Request{SSID: ssid, BSSID: addr, Passphrase: passphrase, Security: SecurityWPA2}, nil
}

// Transport is the link technology a network request is scoped to
type Transport int

const (
	TransportWiFi Transport = iota
)

// Capability is a property a requested network may or may not be required to have
type Capability int

const (
	// CapabilityInternet means the network is expected to reach the internet
	CapabilityInternet Capability = iota
)

// NetworkRequest is handed to the connectivity service
type NetworkRequest struct {
	Transport           Transport
	RemovedCapabilities []Capability
	Specifier           Request
}

// NewNetworkRequest builds a Wi-Fi request that does not require internet
// reachability, since the target access point may not route anywhere.
func NewNetworkRequest(req Request) NetworkRequest {
	return NetworkRequest{
		Transport:           TransportWiFi,
		RemovedCapabilities: []Capability{CapabilityInternet},
		Specifier:           req,
	}
}

// Requires reports whether the request still requires capability c
func (nr NetworkRequest) Requires(c Capability) bool {
	for _, removed := range nr.RemovedCapabilities {
		if removed == c {
			return false
		}
	}
	return true
}
