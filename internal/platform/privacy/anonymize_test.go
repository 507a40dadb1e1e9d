package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "ipv4 keeps /24", input: "203.0.113.47", want: "203.0.113.0"},
		{name: "ipv4 loopback", input: "127.0.0.1", want: "127.0.0.0"},
		{name: "ipv4-mapped ipv6 is treated as ipv4", input: "::ffff:198.51.100.9", want: "198.51.100.0"},
		{name: "ipv6 keeps /48", input: "2001:db8:85a3::8a2e:370:7334", want: "2001:db8:85a3::"},
		{name: "ipv6 loopback", input: "::1", want: "::"},
		{name: "empty", input: "", want: "unknown"},
		{name: "unknown marker", input: "unknown", want: "unknown"},
		{name: "garbage", input: "not-an-ip", want: "invalid"},
		{name: "host and port", input: "192.168.1.1:8080", want: "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AnonymizeIP(tt.input))
		})
	}
}

func TestAnonymizeIPGroupsSameNetwork(t *testing.T) {
	for _, ip := range []string{"192.0.2.1", "192.0.2.128", "192.0.2.255"} {
		assert.Equal(t, "192.0.2.0", AnonymizeIP(ip), ip)
	}
}
