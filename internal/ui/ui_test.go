package ui

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/muurk/apswitch/internal/connect"
)

func TestResultRender(t *testing.T) {
	tests := []struct {
		name   string
		result *Result
		want   []string
	}{
		{
			name:   "success keeps detail order",
			result: NewSuccessResult("Connected", Detail{"SSID", "Deeper"}, Detail{"BSSID", "AA:BB:CC:DD:EE:FF"}),
			want:   []string{"SUCCESS", "Connected", "SSID:", "Deeper", "BSSID:"},
		},
		{
			name:   "failure uses user message and hints",
			result: NewFailureResult("Connect failed", connect.NewWifiDisabledError()),
			want:   []string{"FAILED", "Please enable your WIFI!", "Troubleshooting:", "nmcli radio wifi on"},
		},
		{
			name:   "failure with explicit tips",
			result: NewFailureResult("Browse failed", connect.NewBackendError("boom", nil), "try again"),
			want:   []string{"FAILED", "try again"},
		},
		{
			name:   "warning",
			result: NewWarningResult("Scan denied").AddDetail("Permission", "no"),
			want:   []string{"WARNING", "Scan denied", "Permission:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.result.SetWidth(80).Render()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("Render() missing %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestSuccessDetailOrder(t *testing.T) {
	out := NewSuccessResult("x", Detail{"First", "1"}, Detail{"Second", "2"}, Detail{"Third", "3"}).SetWidth(80).Render()
	a, b, c := strings.Index(out, "First"), strings.Index(out, "Second"), strings.Index(out, "Third")
	if a < 0 || a > b || b > c {
		t.Errorf("details out of order:\n%s", out)
	}
}

func TestRenderHeader(t *testing.T) {
	out := RenderHeader("connect", "apswitch connect", []Detail{{"SSID", "Deeper"}}, 70)
	for _, w := range []string{"CONNECT", "apswitch connect", "SSID:", "Deeper"} {
		if !strings.Contains(out, w) {
			t.Errorf("RenderHeader() missing %q:\n%s", w, out)
		}
	}

	bare := RenderHeader("status", "apswitch status", nil, 70)
	if strings.Contains(bare, "SSID") || !strings.Contains(bare, "STATUS") {
		t.Errorf("RenderHeader() without params:\n%s", bare)
	}
}

func TestPrinterFollow(t *testing.T) {
	log := connect.NewLog()
	log.Append("requesting Deeper (AA:BB:CC:DD:EE:FF)")

	var buf syncBuffer
	p := NewPrinter(&buf).SetWidth(80)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Follow(ctx, log)
		close(done)
	}()

	waitFor(t, &buf, "requesting Deeper")
	log.Append("available: network=wlan0@/ac/1")
	waitFor(t, &buf, "available: network=wlan0@/ac/1")
	log.Clear()
	waitFor(t, &buf, "log cleared")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Follow() did not return after cancel")
	}

	if n := strings.Count(buf.String(), "requesting Deeper"); n != 1 {
		t.Errorf("backlog line printed %d times", n)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"yes", true},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		if got := Confirm(strings.NewReader(tt.input), &out, "Overwrite profile?"); got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "Overwrite profile?") {
			t.Errorf("question not printed: %q", out.String())
		}
	}
}

func TestLineStyle(t *testing.T) {
	if LineStyle("available: x").GetForeground() != SuccessColor {
		t.Error("available lines should be green")
	}
	if LineStyle("error: Invalid MAC!").GetForeground() != ErrorColor {
		t.Error("error lines should be red")
	}
	if LineStyle("capabilities-changed: x").GetForeground() != TextColor {
		t.Error("informational lines should use the text color")
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, b *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(b.String(), want) {
		if time.Now().After(deadline) {
			t.Fatalf("output never contained %q:\n%s", want, b.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
