// Package metadata resolves the caller's address and User-Agent and stores
// them in the request context.
package metadata

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"kickoff/pkg/requestcontext"
)

// MaxForwardedHeaderLength bounds X-Forwarded-For and X-Real-IP before parsing.
const MaxForwardedHeaderLength = 512

// Config lists the reverse proxies allowed to report the client address.
// With no trusted proxies forwarding headers are ignored.
type Config struct {
	TrustedProxies []netip.Prefix
}

// ParseTrustedProxies parses a comma-separated CIDR list, as read from configuration.
// A bare address is treated as a single-host prefix.
func ParseTrustedProxies(csv string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, raw := range strings.Split(csv, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			addr, err := netip.ParseAddr(raw)
			if err != nil {
				return nil, fmt.Errorf("parse trusted proxy %q: %w", raw, err)
			}
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(raw)
		if err != nil {
			return nil, fmt.Errorf("parse trusted proxy %q: %w", raw, err)
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes, nil
}

type Middleware struct {
	trusted []netip.Prefix
}

func NewMiddleware(cfg *Config) *Middleware {
	if cfg == nil {
		return &Middleware{}
	}
	return &Middleware{trusted: cfg.TrustedProxies}
}

// Handler stores the client IP and User-Agent in the request context.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), m.clientIP(r), r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP walks X-Forwarded-For from the right, skipping trusted hops, and
// returns the first address a trusted proxy vouched for. Headers from an
// untrusted peer are ignored.
func (m *Middleware) clientIP(r *http.Request) string {
	peer, ok := remoteAddr(r.RemoteAddr)
	if !ok {
		return "unknown"
	}
	if !m.trusts(peer) {
		return peer.String()
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" && len(xff) <= MaxForwardedHeaderLength {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			addr = addr.Unmap()
			if i == 0 || !m.trusts(addr) {
				return addr.String()
			}
		}
		return peer.String()
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" && len(xri) <= MaxForwardedHeaderLength {
		if addr, err := netip.ParseAddr(xri); err == nil {
			return addr.Unmap().String()
		}
	}
	return peer.String()
}

func (m *Middleware) trusts(addr netip.Addr) bool {
	for _, prefix := range m.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// remoteAddr parses http.Request.RemoteAddr, with or without a port.
func remoteAddr(raw string) (netip.Addr, bool) {
	if raw == "" {
		return netip.Addr{}, false
	}
	if ap, err := netip.ParseAddrPort(raw); err == nil {
		return ap.Addr().Unmap(), true
	}
	if addr, err := netip.ParseAddr(strings.Trim(raw, "[]")); err == nil {
		return addr.Unmap(), true
	}
	return netip.Addr{}, false
}
