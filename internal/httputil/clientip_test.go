package httputil

import (
	"net/http"
	"testing"
)

func request(remoteAddr, xff, xri string) *http.Request {
	r := &http.Request{RemoteAddr: remoteAddr, Header: http.Header{}}
	if xff != "" {
		r.Header.Set("X-Forwarded-For", xff)
	}
	if xri != "" {
		r.Header.Set("X-Real-IP", xri)
	}
	return r
}

func TestClientIPDirect(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"203.0.113.7:49152", "203.0.113.7"},
		{"[2001:db8::1]:49152", "2001:db8::1"},
		{"203.0.113.7", "203.0.113.7"}, // no port
	}
	for _, tt := range tests {
		got := ClientIP(request(tt.remoteAddr, "", ""), false)
		if got != tt.want {
			t.Errorf("ClientIP(%q, false) = %q, want %q", tt.remoteAddr, got, tt.want)
		}
	}
}

func TestClientIPBehindProxy(t *testing.T) {
	tests := []struct {
		name string
		xff  string
		xri  string
		want string
	}{
		{"forwarded single hop", "198.51.100.9", "", "198.51.100.9"},
		{"forwarded chain keeps origin", "198.51.100.9, 10.1.0.2, 10.1.0.3", "", "198.51.100.9"},
		{"real-ip when no forwarded header", "", "198.51.100.20", "198.51.100.20"},
		{"forwarded wins over real-ip", "198.51.100.9", "198.51.100.20", "198.51.100.9"},
		{"no headers falls back to peer", "", "", "10.1.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClientIP(request("10.1.0.1:8443", tt.xff, tt.xri), true)
			if got != tt.want {
				t.Errorf("ClientIP(trustProxy=true) = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientIPUntrustedIgnoresHeaders(t *testing.T) {
	r := request("10.1.0.1:8443", "198.51.100.9", "198.51.100.20")
	if got := ClientIP(r, false); got != "10.1.0.1" {
		t.Errorf("ClientIP(trustProxy=false) = %q, want peer address 10.1.0.1", got)
	}
}
