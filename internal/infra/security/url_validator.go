package security

import (
	"net"
	"net/url"
	"strings"
)

// URLValidator vets merchant-supplied URLs before the service stores or calls
// them. Two independent checks: redirect targets (open redirect, CWE-601) and
// webhook targets (SSRF, CWE-918).
type URLValidator struct {
	redirectHosts []string
	webhookHosts  []string

	// lookupIP is swappable in tests so validation never depends on live DNS.
	lookupIP func(host string) ([]net.IP, error)
}

// blockedHosts are rejected outright before any DNS resolution.
var blockedHosts = map[string]struct{}{
	"localhost":                {},
	"127.0.0.1":                {},
	"::1":                      {},
	"[::1]":                    {},
	"0.0.0.0":                  {},
	"metadata.google.internal": {},
	"metadata.google":          {},
	"169.254.169.254":          {}, // AWS/GCP metadata
}

// reservedV4 holds special-use ranges not covered by net.IP's own
// classification helpers.
var reservedV4 = func() []*net.IPNet {
	var nets []*net.IPNet
	for _, cidr := range []string{
		"100.64.0.0/10", // carrier-grade NAT
		"192.0.0.0/24",
		"198.18.0.0/15", // benchmarking
		"240.0.0.0/4",
	} {
		_, n, _ := net.ParseCIDR(cidr)
		nets = append(nets, n)
	}
	return nets
}()

// NewURLValidator builds a validator from the configured allow-lists.
// An empty redirect allow-list denies every redirect URL; an empty webhook
// allow-list permits any public host.
func NewURLValidator(redirectHosts, webhookHosts []string) *URLValidator {
	return &URLValidator{
		redirectHosts: redirectHosts,
		webhookHosts:  webhookHosts,
		lookupIP:      net.LookupIP,
	}
}

// IsValidRedirectURL reports whether rawURL is a safe redirect target: http or
// https, with a host that exactly matches or is a subdomain of an allow-listed
// host.
func (v *URLValidator) IsValidRedirectURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Hostname() == "" {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	// Fail-safe: no hosts configured = no redirects allowed.
	if len(v.redirectHosts) == 0 {
		return false
	}

	return hostAllowed(parsed.Hostname(), v.redirectHosts)
}

// IsValidWebhookURL reports whether rawURL is safe for a server-side request:
// HTTPS, not a known internal hostname, and resolving only to public
// addresses. Resolve-then-classify closes the gap where an external-looking
// name points at an internal address.
func (v *URLValidator) IsValidWebhookURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Hostname() == "" {
		return false
	}

	// Webhooks are always HTTPS, no exception.
	if parsed.Scheme != "https" {
		return false
	}

	host := strings.ToLower(parsed.Hostname())
	if _, blocked := blockedHosts[host]; blocked {
		return false
	}
	if _, blocked := blockedHosts["["+host+"]"]; blocked {
		return false
	}

	// IP literals are classified directly; hostnames must resolve, and every
	// resolved address must be public.
	if ip := net.ParseIP(host); ip != nil {
		if !isPublicIP(ip) {
			return false
		}
	} else {
		ips, err := v.lookupIP(host)
		if err != nil || len(ips) == 0 {
			// Resolution failure: treat as a probable internal-only name.
			return false
		}
		for _, ip := range ips {
			if !isPublicIP(ip) {
				return false
			}
		}
	}

	// Optional second gate: restrict webhooks to configured hosts.
	if len(v.webhookHosts) > 0 {
		return hostAllowed(host, v.webhookHosts)
	}
	return true
}

// hostAllowed matches case-insensitively on exact host or dot-boundary
// subdomain, so "evilexample.com" never matches "example.com".
func hostAllowed(host string, allowed []string) bool {
	host = strings.ToLower(host)
	for _, a := range allowed {
		a = strings.ToLower(a)
		if host == a || strings.HasSuffix(host, "."+a) {
			return true
		}
	}
	return false
}

func isPublicIP(ip net.IP) bool {
	if !ip.IsGlobalUnicast() {
		// loopback, link-local, multicast, unspecified
		return false
	}
	if ip.IsPrivate() {
		return false
	}
	if v4 := ip.To4(); v4 != nil {
		for _, n := range reservedV4 {
			if n.Contains(v4) {
				return false
			}
		}
	}
	return true
}
