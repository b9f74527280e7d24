package guard

import (
	"context"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticResolver(addrs ...string) Resolver {
	return func(_ context.Context, _ string) ([]netip.Addr, error) {
		out := make([]netip.Addr, 0, len(addrs))
		for _, a := range addrs {
			out = append(out, netip.MustParseAddr(a))
		}
		return out, nil
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		resolver    Resolver
		url         string
		wantBlocked bool
		wantReason  string
	}{
		{
			name:        "allow-listed host resolving to public address",
			cfg:         Config{AllowedHosts: []string{"validator.example.com"}},
			resolver:    staticResolver("93.184.216.34"),
			url:         "https://validator.example.com/v1/validate",
			wantBlocked: false,
		},
		{
			name:        "subdomain of allow-listed host",
			cfg:         Config{AllowedHosts: []string{"example.com"}},
			resolver:    staticResolver("93.184.216.34"),
			url:         "https://api.example.com/hook",
			wantBlocked: false,
		},
		{
			name:        "cloud metadata literal IP",
			cfg:         Config{AllowedHosts: []string{"example.com"}},
			url:         "http://169.254.169.254/latest/meta-data/",
			wantBlocked: true,
			wantReason:  "blocked range",
		},
		{
			name:        "private network literal IP",
			cfg:         Config{AllowedHosts: []string{"example.com"}},
			url:         "http://10.0.0.5/admin",
			wantBlocked: true,
			wantReason:  "blocked range",
		},
		{
			name:        "public literal IP still rejected",
			cfg:         Config{AllowedHosts: []string{"example.com"}},
			url:         "http://93.184.216.34/",
			wantBlocked: true,
			wantReason:  "not allow-listed",
		},
		{
			name:        "host not on allow-list",
			cfg:         Config{AllowedHosts: []string{"example.com"}},
			resolver:    staticResolver("93.184.216.34"),
			url:         "https://evil.test/",
			wantBlocked: true,
			wantReason:  "allow-list",
		},
		{
			name:        "allow-listed host rebinding to private address",
			cfg:         Config{AllowedHosts: []string{"example.com"}},
			resolver:    staticResolver("93.184.216.34", "192.168.1.10"),
			url:         "https://api.example.com/hook",
			wantBlocked: true,
			wantReason:  "blocked range",
		},
		{
			name:        "allow-listed host resolving to IPv6 unique local",
			cfg:         Config{AllowedHosts: []string{"example.com"}},
			resolver:    staticResolver("fc00::1"),
			url:         "https://api.example.com/hook",
			wantBlocked: true,
			wantReason:  "blocked range",
		},
		{
			name:        "non-http scheme",
			cfg:         Config{AllowedHosts: []string{"example.com"}},
			url:         "ftp://example.com/file",
			wantBlocked: true,
			wantReason:  "scheme",
		},
		{
			name:        "loopback literal allowed when configured",
			cfg:         Config{AllowLoopback: true},
			url:         "http://127.0.0.1:9090/hook",
			wantBlocked: false,
		},
		{
			name:        "loopback allowed only when configured",
			cfg:         Config{AllowedHosts: []string{"localhost"}, AllowLoopback: true},
			resolver:    staticResolver("127.0.0.1"),
			url:         "http://localhost:9090/hook",
			wantBlocked: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewOutboundGuard(tt.cfg)
			if tt.resolver != nil {
				g = g.WithResolver(tt.resolver)
			}

			err := g.Authorize(context.Background(), tt.url)

			if !tt.wantBlocked {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var blocked *BlockedError
			require.ErrorAs(t, err, &blocked)
			assert.Contains(t, blocked.Reason, tt.wantReason)
		})
	}
}

func TestAuthorizeSuffixMatchingIsAnchored(t *testing.T) {
	// "example.com" must not allow "notexample.com".
	g := NewOutboundGuard(Config{AllowedHosts: []string{"example.com"}}).
		WithResolver(staticResolver("93.184.216.34"))

	err := g.Authorize(context.Background(), "https://notexample.com/")
	require.Error(t, err)
}
