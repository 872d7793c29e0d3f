package config

import (
	"fmt"
	"net/netip"
	"strings"
	"time"
)

// RateLimitConfig controls the per-IP limit applied to the /auth routes.
type RateLimitConfig struct {
	AuthRequests int    `env:"RATELIMIT_AUTH_REQUESTS" env-default:"20"`
	AuthWindow   string `env:"RATELIMIT_AUTH_WINDOW" env-default:"PT1M"`

	// Comma separated CIDRs or addresses of reverse proxies whose
	// forwarded client IP headers the limiter believes. Empty trusts none.
	TrustedProxies string `env:"RATELIMIT_TRUSTED_PROXIES" env-default:""`
}

func (r RateLimitConfig) ParseAuthWindow() (time.Duration, error) {
	return parseDurationISO8601(r.AuthWindow)
}

func (r RateLimitConfig) ParseTrustedProxies() ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, entry := range strings.Split(r.TrustedProxies, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid proxy range %q: %w", entry, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy address %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}
