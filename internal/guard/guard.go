// Package guard vets every outbound URL the service is asked to call:
// address-validation providers and webhook targets alike. A URL is only
// authorized when its host is on the configured allow-list and none of its
// resolved addresses fall in a private, loopback, link-local, multicast or
// reserved range. The range check runs even for allow-listed hosts, so a
// rebinding DNS answer cannot steer a request into the internal network.
package guard

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"taxengine-api/internal/logger"
)

// BlockedError is returned when a URL fails authorization. Reason is safe
// to log but is never included verbatim in API responses.
type BlockedError struct {
	URL    string
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("outbound call to %s blocked: %s", e.URL, e.Reason)
}

// Config is an explicit, immutable configuration value passed in at
// construction. AllowedHosts entries match exactly or as a dot-suffix
// ("example.com" allows "api.example.com").
type Config struct {
	AllowedHosts []string
	// AllowLoopback permits loopback targets; only ever set in tests and
	// local development.
	AllowLoopback bool
}

// Resolver resolves a hostname to IP addresses. Injectable for tests.
type Resolver func(ctx context.Context, host string) ([]netip.Addr, error)

// OutboundGuard authorizes outbound URLs against the allow-list and the
// blocked address ranges.
type OutboundGuard struct {
	cfg     Config
	blocked []netip.Prefix
	resolve Resolver
	logger  *zap.Logger
}

// Private, loopback, link-local and otherwise non-routable ranges that are
// never legitimate targets for this service, IPv4 and IPv6.
var blockedRanges = []string{
	"127.0.0.0/8",    // loopback
	"10.0.0.0/8",     // private class A
	"172.16.0.0/12",  // private class B
	"192.168.0.0/16", // private class C
	"169.254.0.0/16", // link-local (cloud metadata lives here)
	"0.0.0.0/8",      // current network
	"100.64.0.0/10",  // carrier-grade NAT
	"224.0.0.0/4",    // multicast
	"240.0.0.0/4",    // reserved
	"::1/128",        // IPv6 loopback
	"fc00::/7",       // IPv6 unique local
	"fe80::/10",      // IPv6 link-local
	"ff00::/8",       // IPv6 multicast
}

// NewOutboundGuard builds a guard from the given config. The default
// resolver uses the system DNS.
func NewOutboundGuard(cfg Config) *OutboundGuard {
	prefixes := make([]netip.Prefix, 0, len(blockedRanges))
	for _, cidr := range blockedRanges {
		prefixes = append(prefixes, netip.MustParsePrefix(cidr))
	}
	return &OutboundGuard{
		cfg:     cfg,
		blocked: prefixes,
		resolve: defaultResolver,
		logger:  logger.Log,
	}
}

// WithResolver replaces the DNS resolver. Used by tests to avoid network
// lookups.
func (g *OutboundGuard) WithResolver(r Resolver) *OutboundGuard {
	g.resolve = r
	return g
}

func defaultResolver(ctx context.Context, host string) ([]netip.Addr, error) {
	ips, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil, err
	}
	return ips, nil
}

// Authorize returns nil when the URL may be fetched. It must be called
// immediately before the network call; a rejected URL never reaches the
// network layer.
func (g *OutboundGuard) Authorize(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &BlockedError{URL: rawURL, Reason: "unparseable URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &BlockedError{URL: rawURL, Reason: fmt.Sprintf("scheme %q not permitted", u.Scheme)}
	}

	host := u.Hostname()
	if host == "" {
		return &BlockedError{URL: rawURL, Reason: "missing host"}
	}

	// A literal IP is checked directly; the allow-list only holds names.
	// Loopback literals pass only when AllowLoopback is set (local
	// development); every other literal is rejected outright.
	if addr, err := netip.ParseAddr(strings.Trim(host, "[]")); err == nil {
		if reason := g.addrBlocked(addr); reason != "" {
			g.logBlocked(rawURL, reason)
			return &BlockedError{URL: rawURL, Reason: reason}
		}
		if g.cfg.AllowLoopback && addr.IsLoopback() {
			return nil
		}
		return &BlockedError{URL: rawURL, Reason: "literal IP targets are not allow-listed"}
	}

	if !g.hostAllowed(host) {
		g.logBlocked(rawURL, "host not on allow-list")
		return &BlockedError{URL: rawURL, Reason: "host not on allow-list"}
	}

	// Resolve and check every address; an allow-listed name pointing at an
	// internal range is still rejected.
	addrs, err := g.resolve(ctx, host)
	if err != nil {
		return &BlockedError{URL: rawURL, Reason: "DNS resolution failed"}
	}
	if len(addrs) == 0 {
		return &BlockedError{URL: rawURL, Reason: "host resolved to no addresses"}
	}
	for _, addr := range addrs {
		if reason := g.addrBlocked(addr.Unmap()); reason != "" {
			g.logBlocked(rawURL, reason)
			return &BlockedError{URL: rawURL, Reason: reason}
		}
	}
	return nil
}

func (g *OutboundGuard) hostAllowed(host string) bool {
	h := strings.ToLower(host)
	for _, allowed := range g.cfg.AllowedHosts {
		a := strings.ToLower(allowed)
		if h == a || strings.HasSuffix(h, "."+a) {
			return true
		}
	}
	return false
}

func (g *OutboundGuard) addrBlocked(addr netip.Addr) string {
	if g.cfg.AllowLoopback && addr.IsLoopback() {
		return ""
	}
	for _, p := range g.blocked {
		if p.Contains(addr) {
			return fmt.Sprintf("address %s is in blocked range %s", addr, p)
		}
	}
	return ""
}

func (g *OutboundGuard) logBlocked(rawURL, reason string) {
	g.logger.Warn("Blocked outbound request",
		zap.String("url", rawURL),
		zap.String("reason", reason),
	)
}
