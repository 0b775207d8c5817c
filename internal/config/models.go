package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/muurk/apswitch/internal/connect"
)

// Default preference values
const (
	DefaultRequestTimeout = 45 // seconds
)

// Registry represents the entire user configuration file.
// It stores saved access point profiles and application preferences.
type Registry struct {
	Version     int                 `yaml:"version"`
	Profiles    map[string]*Profile `yaml:"profiles,omitempty"` // Keyed by profile name
	Preferences *Preferences        `yaml:"preferences,omitempty"`
}

// Profile is a saved access point. Passphrases are never stored.
type Profile struct {
	SSID       string    `yaml:"ssid"`
	BSSID      string    `yaml:"bssid"`
	LastUsed   time.Time `yaml:"last_used,omitempty"`
	LastResult string    `yaml:"last_result,omitempty"` // e.g. "available", "unavailable"
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	AutoUnregister bool   `yaml:"auto_unregister"`           // Deregister after the first result
	RequestTimeout int    `yaml:"request_timeout"`           // Seconds before a request is unavailable
	Interface      string `yaml:"interface,omitempty"`       // Wi-Fi interface; empty means the first one
	RequiredSSID   string `yaml:"required_ssid,omitempty"`   // copy-bssid only succeeds on this SSID
	LogStreamAddr  string `yaml:"log_stream_addr,omitempty"` // WebSocket log stream listen address
}

func defaultPreferences() *Preferences {
	return &Preferences{
		RequestTimeout: DefaultRequestTimeout,
	}
}

// Timeout returns the request timeout as a duration
func (p *Preferences) Timeout() time.Duration {
	if p == nil || p.RequestTimeout <= 0 {
		return DefaultRequestTimeout * time.Second
	}
	return time.Duration(p.RequestTimeout) * time.Second
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Profiles:    make(map[string]*Profile),
		Preferences: defaultPreferences(),
	}
}

// GetProfile retrieves a profile by name.
// Returns nil if the profile doesn't exist in the registry.
func (r *Registry) GetProfile(name string) *Profile {
	return r.Profiles[name]
}

// SaveProfile validates and stores an access point under name,
// replacing any existing profile with that name.
func (r *Registry) SaveProfile(name, ssid, bssid string) (*Profile, error) {
	if name == "" {
		return nil, fmt.Errorf("profile name is empty")
	}
	req, err := connect.Validate(ssid, bssid, "")
	if err != nil {
		return nil, err
	}

	if r.Profiles == nil {
		r.Profiles = make(map[string]*Profile)
	}

	profile := &Profile{
		SSID:  req.SSID,
		BSSID: connect.FormatBSSID(req.BSSID),
	}
	if existing, ok := r.Profiles[name]; ok {
		profile.LastUsed = existing.LastUsed
		profile.LastResult = existing.LastResult
	}
	r.Profiles[name] = profile
	return profile, nil
}

// RemoveProfile deletes a profile. It reports whether the profile existed.
func (r *Registry) RemoveProfile(name string) bool {
	if _, ok := r.Profiles[name]; !ok {
		return false
	}
	delete(r.Profiles, name)
	return true
}

// RecordResult stamps a profile with the outcome of its latest request.
// Unknown names are ignored.
func (r *Registry) RecordResult(name, result string) {
	profile, ok := r.Profiles[name]
	if !ok {
		return
	}
	profile.LastUsed = time.Now()
	profile.LastResult = result
}

// ProfileNames returns the profile names in sorted order
func (r *Registry) ProfileNames() []string {
	names := make([]string, 0, len(r.Profiles))
	for name := range r.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindByBSSID returns the name of the profile saved for bssid, if any
func (r *Registry) FindByBSSID(bssid string) (string, bool) {
	for _, name := range r.ProfileNames() {
		if equalFoldMAC(r.Profiles[name].BSSID, bssid) {
			return name, true
		}
	}
	return "", false
}

func equalFoldMAC(a, b string) bool {
	ra, errA := connect.Validate("x", a, "")
	rb, errB := connect.Validate("x", b, "")
	if errA != nil || errB != nil {
		return false
	}
	return ra.BSSID.String() == rb.BSSID.String()
}
