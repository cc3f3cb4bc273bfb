package security

import (
	"errors"
	"net"
	"testing"
)

func staticResolver(addrs map[string][]string) func(string) ([]net.IP, error) {
	return func(host string) ([]net.IP, error) {
		raw, ok := addrs[host]
		if !ok {
			return nil, errors.New("no such host")
		}
		var ips []net.IP
		for _, a := range raw {
			ips = append(ips, net.ParseIP(a))
		}
		return ips, nil
	}
}

func TestIsValidRedirectURL(t *testing.T) {
	v := NewURLValidator([]string{"example.com"}, nil)

	cases := []struct {
		name string
		url  string
		want bool
	}{
		{"empty", "", false},
		{"garbage", "://nope", false},
		{"no scheme", "example.com/path", false},
		{"ftp scheme", "ftp://example.com/file", false},
		{"javascript scheme", "javascript:alert(1)", false},
		{"exact host http", "http://example.com/return", true},
		{"exact host https", "https://example.com/return", true},
		{"subdomain", "https://pay.example.com/ok", true},
		{"deep subdomain", "https://a.b.example.com/ok", true},
		{"case insensitive", "https://PAY.EXAMPLE.COM/ok", true},
		{"lookalike host", "https://evil-example.com/", false},
		{"suffix without dot boundary", "https://evilexample.com/", false},
		{"different host", "https://attacker.net/", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := v.IsValidRedirectURL(tc.url); got != tc.want {
				t.Errorf("IsValidRedirectURL(%q) = %v, want %v", tc.url, got, tc.want)
			}
		})
	}
}

func TestIsValidRedirectURL_EmptyAllowListDeniesAll(t *testing.T) {
	v := NewURLValidator(nil, nil)
	if v.IsValidRedirectURL("https://example.com/") {
		t.Error("empty allow-list must deny every redirect URL")
	}
}

func TestIsValidWebhookURL(t *testing.T) {
	v := NewURLValidator(nil, nil)
	v.lookupIP = staticResolver(map[string][]string{
		"hooks.merchant.io":  {"198.51.100.7"},
		"internal.corp":      {"10.0.0.5"},
		"mixed.merchant.io":  {"198.51.100.7", "192.168.1.4"},
		"cgnat.merchant.io":  {"100.64.1.2"},
		"classe.merchant.io": {"240.0.0.1"},
	})

	cases := []struct {
		name string
		url  string
		want bool
	}{
		{"empty", "", false},
		{"http scheme", "http://hooks.merchant.io/wh", false},
		{"localhost", "https://localhost/wh", false},
		{"loopback ip", "https://127.0.0.1/wh", false},
		{"v6 loopback", "https://[::1]/wh", false},
		{"any address", "https://0.0.0.0/wh", false},
		{"metadata hostname", "https://metadata.google.internal/computeMetadata", false},
		{"metadata ip", "https://169.254.169.254/latest/meta-data", false},
		{"private ip literal", "https://10.1.2.3/wh", false},
		{"public ip literal", "https://198.51.100.7/wh", true},
		{"resolves public", "https://hooks.merchant.io/wh", true},
		{"resolves private", "https://internal.corp/wh", false},
		{"one private record poisons", "https://mixed.merchant.io/wh", false},
		{"resolution failure", "https://does-not-resolve.example/wh", false},
		{"cgnat range", "https://cgnat.merchant.io/wh", false},
		{"reserved class e", "https://classe.merchant.io/wh", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := v.IsValidWebhookURL(tc.url); got != tc.want {
				t.Errorf("IsValidWebhookURL(%q) = %v, want %v", tc.url, got, tc.want)
			}
		})
	}
}

func TestIsValidWebhookURL_AllowList(t *testing.T) {
	v := NewURLValidator(nil, []string{"merchant.io"})
	v.lookupIP = staticResolver(map[string][]string{
		"hooks.merchant.io": {"198.51.100.7"},
		"hooks.other.io":    {"198.51.100.8"},
	})

	if !v.IsValidWebhookURL("https://hooks.merchant.io/wh") {
		t.Error("allow-listed subdomain rejected")
	}
	if v.IsValidWebhookURL("https://hooks.other.io/wh") {
		t.Error("host outside the allow-list accepted")
	}
}
