package fetch

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// Hostnames rejected outright, before any DNS lookup.
var blockedHostnames = map[string]struct{}{
	"localhost": {},
	"0.0.0.0":   {},
}

// Guard applies the SSRF safety rules: http/https scheme only, no
// loopback/LAN hostnames, and no address inside a private, loopback, or
// link-local range, whether literal or DNS-resolved. AllowPrivate disables
// the address checks for local development and tests; the scheme check
// always applies.
type Guard struct {
	AllowPrivate bool
}

// ValidateURL parses a candidate URL and applies the pre-network rules.
func (g Guard) ValidateURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", ErrDisallowedScheme, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if err := g.validateHostname(host); err != nil {
		return nil, err
	}
	return u, nil
}

func (g Guard) validateHostname(host string) error {
	if g.AllowPrivate {
		return nil
	}
	lower := strings.ToLower(host)
	if _, blocked := blockedHostnames[lower]; blocked {
		return fmt.Errorf("%w: host %q", ErrDisallowedHost, host)
	}
	if lower == "local" || strings.HasSuffix(lower, ".local") {
		return fmt.Errorf("%w: host %q", ErrDisallowedHost, host)
	}
	if ip := net.ParseIP(strings.Trim(lower, "[]")); ip != nil {
		if isDisallowedIP(ip) {
			return fmt.Errorf("%w: address %s", ErrDisallowedHost, ip)
		}
	}
	return nil
}

// ResolveAndValidate resolves the hostname and rejects it when any returned
// address falls in a disallowed range. Literal IPs are checked directly.
func (g Guard) ResolveAndValidate(ctx context.Context, host string) error {
	if err := g.validateHostname(host); err != nil {
		return err
	}
	if g.AllowPrivate || net.ParseIP(strings.Trim(host, "[]")) != nil {
		return nil
	}
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", host, err)
	}
	for _, addr := range addrs {
		if isDisallowedIP(addr.IP) {
			return fmt.Errorf("%w: %s resolves to %s", ErrDisallowedHost, host, addr.IP)
		}
	}
	return nil
}

// isDisallowedIP covers IPv4 10/8, 172.16/12, 192.168/16, 127/8, 0.0.0.0,
// link-local, and IPv6 ::1, fc00::/7, fe80::/10.
func isDisallowedIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}

// dialControl re-checks the connect-time address. DNS answers can change
// between validation and dial, so the socket-level check is the one that
// actually closes the rebinding window.
func (g Guard) dialControl(_ string, address string, _ syscall.RawConn) error {
	if g.AllowPrivate {
		return nil
	}
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("split dial address: %w", err)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Errorf("%w: non-IP dial address %q", ErrDisallowedHost, host)
	}
	if isDisallowedIP(ip) {
		return fmt.Errorf("%w: dial to %s", ErrDisallowedHost, ip)
	}
	return nil
}
