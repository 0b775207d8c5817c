package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/muurk/apswitch/internal/connect"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "apswitch") {
		t.Errorf("GetConfigDir() = %v, should contain 'apswitch'", configDir)
	}

	if runtime.GOOS == "linux" {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
		configDir, err = GetConfigDir()
		if err != nil {
			t.Fatal(err)
		}
		if configDir != "/tmp/xdg/apswitch" {
			t.Errorf("GetConfigDir() with XDG_CONFIG_HOME = %v", configDir)
		}
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}
	if reg.Profiles == nil {
		t.Error("NewRegistry().Profiles should not be nil")
	}
	if reg.Preferences == nil {
		t.Fatal("NewRegistry().Preferences should not be nil")
	}
	if reg.Preferences.AutoUnregister {
		t.Error("AutoUnregister should be off by default")
	}
	if reg.Preferences.Timeout() != 45*time.Second {
		t.Errorf("Timeout() = %v, want 45s", reg.Preferences.Timeout())
	}
}

func TestSaveProfile(t *testing.T) {
	tests := []struct {
		name    string
		profile string
		ssid    string
		bssid   string
		wantErr func(error) bool
		want    string
	}{
		{"valid", "deeper", "Deeper CHIRP+", "aa:bb:cc:dd:ee:ff", nil, "AA:BB:CC:DD:EE:FF"},
		{"dash separated", "home", "Home", "00-11-22-33-44-55", nil, "00:11:22:33:44:55"},
		{"empty ssid", "x", "", "AA:BB:CC:DD:EE:FF", connect.IsEmptyField, ""},
		{"bad bssid", "x", "Deeper", "AA:BB", connect.IsInvalidAddress, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			p, err := reg.SaveProfile(tt.profile, tt.ssid, tt.bssid)
			if tt.wantErr != nil {
				if !tt.wantErr(err) {
					t.Errorf("SaveProfile() error = %v", err)
				}
				if reg.GetProfile(tt.profile) != nil {
					t.Error("invalid profile must not be stored")
				}
				return
			}
			if err != nil {
				t.Fatalf("SaveProfile() error = %v", err)
			}
			if p.BSSID != tt.want {
				t.Errorf("BSSID = %v, want %v", p.BSSID, tt.want)
			}
			if reg.GetProfile(tt.profile) != p {
				t.Error("GetProfile() should return the stored profile")
			}
		})
	}

	if _, err := NewRegistry().SaveProfile("", "Deeper", "AA:BB:CC:DD:EE:FF"); err == nil {
		t.Error("empty profile name should be rejected")
	}
}

func TestSaveProfileKeepsHistory(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.SaveProfile("deeper", "Deeper", "AA:BB:CC:DD:EE:FF"); err != nil {
		t.Fatal(err)
	}
	reg.RecordResult("deeper", "available")

	p, err := reg.SaveProfile("deeper", "Deeper 2", "AA:BB:CC:DD:EE:01")
	if err != nil {
		t.Fatal(err)
	}
	if p.LastResult != "available" || p.LastUsed.IsZero() {
		t.Errorf("history lost: %+v", p)
	}
}

func TestRecordResultAndRemove(t *testing.T) {
	reg := NewRegistry()
	reg.SaveProfile("deeper", "Deeper", "AA:BB:CC:DD:EE:FF")

	before := time.Now()
	reg.RecordResult("deeper", "unavailable")
	reg.RecordResult("missing", "available")

	p := reg.GetProfile("deeper")
	if p.LastResult != "unavailable" {
		t.Errorf("LastResult = %v", p.LastResult)
	}
	if p.LastUsed.Before(before) {
		t.Errorf("LastUsed = %v, should be after %v", p.LastUsed, before)
	}
	if reg.GetProfile("missing") != nil {
		t.Error("RecordResult must not create profiles")
	}

	if !reg.RemoveProfile("deeper") {
		t.Error("RemoveProfile() = false for existing profile")
	}
	if reg.RemoveProfile("deeper") {
		t.Error("RemoveProfile() = true for removed profile")
	}
}

func TestProfileNamesAndFind(t *testing.T) {
	reg := NewRegistry()
	reg.SaveProfile("zeta", "Z", "00:00:00:00:00:02")
	reg.SaveProfile("alpha", "A", "00:00:00:00:00:01")

	names := reg.ProfileNames()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("ProfileNames() = %v", names)
	}

	if name, ok := reg.FindByBSSID("00-00-00-00-00-02"); !ok || name != "zeta" {
		t.Errorf("FindByBSSID() = %q, %v", name, ok)
	}
	if _, ok := reg.FindByBSSID("00:00:00:00:00:09"); ok {
		t.Error("FindByBSSID() found an unknown address")
	}
}

func TestRegistrySaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	reg := NewRegistry()
	reg.Preferences.AutoUnregister = true
	reg.Preferences.RequestTimeout = 20
	reg.Preferences.LogStreamAddr = "127.0.0.1:8765"
	if _, err := reg.SaveProfile("deeper", "Deeper CHIRP+", "AA:BB:CC:DD:EE:FF"); err != nil {
		t.Fatal(err)
	}
	reg.RecordResult("deeper", "available")

	if err := reg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("config mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	p := loaded.GetProfile("deeper")
	if p == nil {
		t.Fatal("profile should exist in loaded registry")
	}
	if p.SSID != "Deeper CHIRP+" || p.BSSID != "AA:BB:CC:DD:EE:FF" || p.LastResult != "available" {
		t.Errorf("loaded profile = %+v", p)
	}
	if !loaded.Preferences.AutoUnregister || loaded.Preferences.Timeout() != 20*time.Second {
		t.Errorf("loaded preferences = %+v", loaded.Preferences)
	}
}

func TestSaveNeverWritesPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	reg := NewRegistry()
	reg.SaveProfile("deeper", "Deeper", "AA:BB:CC:DD:EE:FF")
	if err := reg.SaveTo(path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"passphrase:", "psk:", "password:"} {
		if strings.Contains(string(data), key) {
			t.Errorf("config contains %q:\n%s", key, data)
		}
	}
}

func TestLoadFrom(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr bool
		check   func(*testing.T, *Registry)
	}{
		{
			name:    "missing preferences get defaults",
			content: "version: 1\nprofiles:\n  deeper:\n    ssid: Deeper\n    bssid: AA:BB:CC:DD:EE:FF\n",
			check: func(t *testing.T, r *Registry) {
				if r.Preferences == nil || r.Preferences.RequestTimeout != DefaultRequestTimeout {
					t.Errorf("preferences = %+v", r.Preferences)
				}
			},
		},
		{
			name:    "empty profiles map is initialised",
			content: "version: 1\n",
			check: func(t *testing.T, r *Registry) {
				if r.Profiles == nil {
					t.Error("Profiles should not be nil")
				}
			},
		},
		{name: "wrong version", content: "version: 2\n", wantErr: true},
		{name: "invalid yaml", content: "version: [\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			reg, err := LoadFrom(path)
			if tt.wantErr {
				if err == nil {
					t.Error("LoadFrom() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadFrom() error = %v", err)
			}
			tt.check(t, reg)
		})
	}

	reg, err := LoadFrom(filepath.Join(dir, "does-not-exist.yaml"))
	if err != nil || reg == nil || reg.Version != 1 {
		t.Errorf("missing file should yield defaults, got %v, %v", reg, err)
	}
}

func BenchmarkGetConfigDir(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = GetConfigDir()
	}
}
