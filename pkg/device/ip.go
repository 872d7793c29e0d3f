package device

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ExtractClientIP returns the caller's IP address. CF-Connecting-IP wins,
// then the first X-Forwarded-For hop, then the transport peer address.
// The chosen candidate must parse as IPv4 or IPv6, otherwise "" is returned.
func ExtractClientIP(h http.Header, remoteAddr string) string {
	candidate := strings.TrimSpace(h.Get("CF-Connecting-IP"))
	if candidate == "" {
		if xff := h.Get("X-Forwarded-For"); xff != "" {
			candidate = strings.TrimSpace(strings.Split(xff, ",")[0])
		}
	}
	if candidate == "" {
		candidate = remoteAddr
		if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
			candidate = host
		}
	}
	return normalizeIP(candidate)
}

func normalizeIP(s string) string {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return ""
	}
	return addr.Unmap().String()
}
