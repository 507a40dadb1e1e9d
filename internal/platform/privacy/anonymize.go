// Package privacy masks personal data before it reaches logs.
package privacy

import (
	"net/netip"
)

const (
	ipv4PrefixBits = 24
	ipv6PrefixBits = 48
)

// AnonymizeIP masks a client address down to its network so rejected
// webhook deliveries can be correlated without storing the caller's host.
// IPv4 keeps the /24, IPv6 keeps the /48.
//
// Returns "unknown" for an empty address and "invalid" when it cannot be parsed.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap()

	bits := ipv6PrefixBits
	if addr.Is4() {
		bits = ipv4PrefixBits
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}
