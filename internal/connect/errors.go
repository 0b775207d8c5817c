package connect

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the category of a controller failure
type ErrorType int

const (
	// ErrTypeEmptyField indicates a required input (SSID or BSSID) was blank
	ErrTypeEmptyField ErrorType = iota
	// ErrTypeInvalidAddress indicates the BSSID is not six hex octets
	ErrTypeInvalidAddress
	// ErrTypeWifiDisabled indicates the Wi-Fi radio is switched off
	ErrTypeWifiDisabled
	// ErrTypeConnectionUnavailable indicates the request could not be satisfied
	ErrTypeConnectionUnavailable
	// ErrTypeScanDenied indicates the caller may not scan for access points
	ErrTypeScanDenied
	// ErrTypeNotConnected indicates there is no current Wi-Fi association
	ErrTypeNotConnected
	// ErrTypeWrongNetwork indicates the current association is not the expected one
	ErrTypeWrongNetwork
	// ErrTypeUnsupported indicates the platform service is missing or too old
	ErrTypeUnsupported
	// ErrTypeBackend indicates the platform service returned an error
	ErrTypeBackend
	// ErrTypeInvalidSSID indicates the SSID is longer than 32 bytes
	ErrTypeInvalidSSID
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeEmptyField:
		return "Empty Field"
	case ErrTypeInvalidAddress:
		return "Invalid Address"
	case ErrTypeWifiDisabled:
		return "Wi-Fi Disabled"
	case ErrTypeConnectionUnavailable:
		return "Connection Unavailable"
	case ErrTypeScanDenied:
		return "Scan Denied"
	case ErrTypeNotConnected:
		return "Not Connected"
	case ErrTypeWrongNetwork:
		return "Wrong Network"
	case ErrTypeUnsupported:
		return "Unsupported"
	case ErrTypeBackend:
		return "Backend Error"
	case ErrTypeInvalidSSID:
		return "Invalid SSID"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is the error value returned by every controller operation
type Error struct {
	Type    ErrorType // Category of error
	Message string    // Human-readable error message
	Field   string    // Input field the error refers to ("ssid", "bssid"), if any
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// NewEmptyFieldError creates an error for a blank required field
func NewEmptyFieldError(field string) *Error {
	return &Error{
		Type:    ErrTypeEmptyField,
		Message: fmt.Sprintf("%s is empty", strings.ToUpper(field)),
		Field:   field,
	}
}

// NewInvalidAddressError creates an error for a malformed BSSID
func NewInvalidAddressError(addr string) *Error {
	return &Error{
		Type:    ErrTypeInvalidAddress,
		Message: fmt.Sprintf("invalid hardware address %q", addr),
		Field:   "bssid",
	}
}

// NewInvalidSSIDError creates an error for an SSID over the 802.11 limit
func NewInvalidSSIDError(ssid string) *Error {
	return &Error{
		Type:    ErrTypeInvalidSSID,
		Message: fmt.Sprintf("SSID is %d bytes long (at most %d allowed)", len(ssid), MaxSSIDLength),
		Field:   "ssid",
	}
}

// NewWifiDisabledError creates an error for a switched-off radio
func NewWifiDisabledError() *Error {
	return &Error{
		Type:    ErrTypeWifiDisabled,
		Message: "Wi-Fi is disabled",
	}
}

// NewUnavailableError creates an error for a request that could not be satisfied
func NewUnavailableError(message string, err error) *Error {
	return &Error{
		Type:    ErrTypeConnectionUnavailable,
		Message: message,
		Err:     err,
	}
}

// NewBackendError wraps a failure reported by the platform service
func NewBackendError(message string, err error) *Error {
	return &Error{
		Type:    ErrTypeBackend,
		Message: message,
		Err:     err,
	}
}

// NewUnsupportedError creates an error for a missing or outdated platform service
func NewUnsupportedError(message string, err error) *Error {
	return &Error{
		Type:    ErrTypeUnsupported,
		Message: message,
		Err:     err,
	}
}

// NewScanDeniedError creates an error for a refused scan permission
func NewScanDeniedError() *Error {
	return &Error{
		Type:    ErrTypeScanDenied,
		Message: "access point scanning is not permitted",
	}
}

// NewNotConnectedError creates an error for a missing Wi-Fi association
func NewNotConnectedError() *Error {
	return &Error{
		Type:    ErrTypeNotConnected,
		Message: "not connected to a Wi-Fi network",
	}
}

// NewWrongNetworkError creates an error for an association with an unexpected SSID
func NewWrongNetworkError(required, current string) *Error {
	return &Error{
		Type:    ErrTypeWrongNetwork,
		Message: fmt.Sprintf("Connect to %s first (currently on %q)", required, current),
	}
}

func hasType(err error, t ErrorType) bool {
	var cErr *Error
	if errors.As(err, &cErr) {
		return cErr.Type == t
	}
	return false
}

// TypeOf returns the ErrorType of err, or ErrTypeBackend for foreign errors
func TypeOf(err error) ErrorType {
	var cErr *Error
	if errors.As(err, &cErr) {
		return cErr.Type
	}
	return ErrTypeBackend
}

// IsEmptyField checks if an error is an empty field error
func IsEmptyField(err error) bool { return hasType(err, ErrTypeEmptyField) }

// IsInvalidAddress checks if an error is an invalid address error
func IsInvalidAddress(err error) bool { return hasType(err, ErrTypeInvalidAddress) }

// IsInvalidSSID checks if an error is an over-long SSID error
func IsInvalidSSID(err error) bool { return hasType(err, ErrTypeInvalidSSID) }

// IsWifiDisabled checks if an error is a Wi-Fi disabled error
func IsWifiDisabled(err error) bool { return hasType(err, ErrTypeWifiDisabled) }

// IsConnectionUnavailable checks if an error is a connection unavailable error
func IsConnectionUnavailable(err error) bool {
	return hasType(err, ErrTypeConnectionUnavailable)
}

// IsUnsupported checks if an error reports a missing or outdated backend
func IsUnsupported(err error) bool { return hasType(err, ErrTypeUnsupported) }

// IsScanDenied checks if an error reports a refused scan permission
func IsScanDenied(err error) bool { return hasType(err, ErrTypeScanDenied) }

// IsNotConnected checks if an error reports a missing association
func IsNotConnected(err error) bool { return hasType(err, ErrTypeNotConnected) }

// IsWrongNetwork checks if an error reports an unexpected association
func IsWrongNetwork(err error) bool { return hasType(err, ErrTypeWrongNetwork) }

// UserMessage returns the short notification text shown for err
func UserMessage(err error) string {
	var cErr *Error
	if !errors.As(err, &cErr) {
		return err.Error()
	}

	switch cErr.Type {
	case ErrTypeEmptyField:
		if cErr.Field == "bssid" {
			return "MAC is empty!"
		}
		return "SSID is empty!"
	case ErrTypeInvalidAddress:
		return "Invalid MAC!"
	case ErrTypeInvalidSSID:
		return "SSID is too long!"
	case ErrTypeWifiDisabled:
		return "Please enable your WIFI!"
	case ErrTypeConnectionUnavailable:
		return "Network unavailable"
	case ErrTypeScanDenied:
		return "Wi-Fi scanning is not permitted"
	case ErrTypeNotConnected:
		return "Not connected to any Wi-Fi network"
	case ErrTypeWrongNetwork:
		return cErr.Message
	case ErrTypeUnsupported:
		return "NetworkManager is not available on this system"
	default:
		return cErr.Message
	}
}

// TroubleshootingHint returns user-friendly troubleshooting advice for an error
func TroubleshootingHint(err error) []string {
	switch TypeOf(err) {
	case ErrTypeEmptyField, ErrTypeInvalidAddress, ErrTypeInvalidSSID:
		return []string{
			"SSID and BSSID are both required",
			"An SSID is at most 32 bytes; accented letters and emoji take several",
			"BSSID must be six hex octets, e.g. AA:BB:CC:DD:EE:FF",
			"Leave the passphrase empty for open networks",
		}
	case ErrTypeWifiDisabled:
		return []string{
			"Enable Wi-Fi with 'nmcli radio wifi on'",
			"Check for a hardware switch or rfkill block ('rfkill list')",
		}
	case ErrTypeConnectionUnavailable:
		return []string{
			"Check the access point is powered on and in range",
			"Verify the BSSID matches the access point radio",
			"Check the passphrase (WPA2 needs 8-63 characters)",
		}
	case ErrTypeScanDenied:
		return []string{
			"Your user lacks the NetworkManager wifi.scan permission",
			"Run from an active local session or adjust the polkit rules",
		}
	case ErrTypeUnsupported:
		return []string{
			"apswitch requires NetworkManager 1.16 or newer",
			"Check that NetworkManager.service is running",
		}
	default:
		return nil
	}
}
