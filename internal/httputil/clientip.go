// Package httputil holds small request helpers shared by the HTTP
// surfaces, currently just client address extraction for the per-IP
// stream limits.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the address a request came from. Proxy headers are
// honored only when trustProxy is set: behind a reverse proxy the peer
// address is the proxy's, and over a direct connection the headers are
// attacker-controlled.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := fromProxyHeaders(r.Header); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, as in tests with a bare address.
		return r.RemoteAddr
	}
	return host
}

// fromProxyHeaders returns the leftmost X-Forwarded-For entry, then
// X-Real-IP, then nothing. The leftmost entry is the original client;
// later entries are the proxies the request passed through.
func fromProxyHeaders(h http.Header) string {
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return strings.TrimSpace(h.Get("X-Real-IP"))
}
