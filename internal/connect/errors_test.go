package connect

import (
	"errors"
	"fmt"
	"testing"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"empty ssid", NewEmptyFieldError("ssid"), "SSID is empty!"},
		{"empty bssid", NewEmptyFieldError("bssid"), "MAC is empty!"},
		{"invalid mac", NewInvalidAddressError("zz"), "Invalid MAC!"},
		{"long ssid", NewInvalidSSIDError("Deeper CHIRP+ extended range access"), "SSID is too long!"},
		{"wifi disabled", NewWifiDisabledError(), "Please enable your WIFI!"},
		{"unavailable", NewUnavailableError("timed out", nil), "Network unavailable"},
		{"scan denied", NewScanDeniedError(), "Wi-Fi scanning is not permitted"},
		{"not connected", NewNotConnectedError(), "Not connected to any Wi-Fi network"},
		{"wrong network", NewWrongNetworkError("Deeper", "Home"), `Connect to Deeper first (currently on "Home")`},
		{"backend", NewBackendError("dbus call failed", errors.New("boom")), "dbus call failed"},
		{"foreign", errors.New("plain"), "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorPredicatesThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("connect: %w", NewWifiDisabledError())

	if !IsWifiDisabled(wrapped) {
		t.Error("IsWifiDisabled should see through %w")
	}
	if IsEmptyField(wrapped) || IsInvalidAddress(wrapped) || IsConnectionUnavailable(wrapped) {
		t.Error("only the matching predicate should report true")
	}
	if TypeOf(errors.New("x")) != ErrTypeBackend {
		t.Error("foreign errors should be classified as backend errors")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("org.freedesktop.DBus.Error.ServiceUnknown")
	err := NewUnsupportedError("NetworkManager not running", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if !IsUnsupported(err) {
		t.Error("IsUnsupported = false")
	}
	want := "Unsupported: NetworkManager not running (caused by: org.freedesktop.DBus.Error.ServiceUnknown)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestTroubleshootingHint(t *testing.T) {
	if len(TroubleshootingHint(NewWifiDisabledError())) == 0 {
		t.Error("expected hints for a disabled radio")
	}
	if TroubleshootingHint(NewBackendError("x", nil)) != nil {
		t.Error("backend errors have no canned hints")
	}
}
