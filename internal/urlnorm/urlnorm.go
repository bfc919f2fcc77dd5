package urlnorm

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// ErrInvalidURL is returned when an input cannot be turned into an absolute
// http(s) URL, even relative to the supplied base.
var ErrInvalidURL = errors.New("invalid URL")

// NormalizedURL is the canonical string key of a URL.
// Two URLs that are the same resource for audit purposes always produce
// the same NormalizedURL.
type NormalizedURL string

// String returns the normalized URL as a plain string.
func (n NormalizedURL) String() string {
	return string(n)
}

// defaultPorts maps a scheme to the port that is implied when none is given.
var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// Normalize returns the canonical form of raw.
// When base is non-nil, raw is resolved relative to it first.
// Only http and https URLs with a host are accepted.
func Normalize(raw string, base *url.URL) (NormalizedURL, error) {
	u, err := Parse(raw, base)
	if err != nil {
		return "", err
	}
	return NormalizedURL(u.String()), nil
}

// Parse resolves and normalizes raw, returning the resulting *url.URL.
// The returned URL's String() is the NormalizedURL form.
func Parse(raw string, base *url.URL) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidURL)
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidURL, trimmed, err)
	}

	if base != nil {
		u = base.ResolveReference(u)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if _, ok := defaultPorts[u.Scheme]; !ok {
		return nil, fmt.Errorf("%w: %q: unsupported scheme %q", ErrInvalidURL, trimmed, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q: missing host", ErrInvalidURL, trimmed)
	}

	host, err := normalizeHost(u.Scheme, u.Host)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidURL, trimmed, err)
	}
	u.Host = host
	u.Fragment = ""
	u.RawFragment = ""
	u.ForceQuery = false
	u.Opaque = ""

	// Slashes are trimmed on the escaped form so that an encoded "%2F"
	// stays part of the path.
	escaped := trimTrailingSlashes(u.EscapedPath())
	path, err := url.PathUnescape(escaped)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidURL, trimmed, err)
	}
	u.Path = path
	u.RawPath = escaped

	return u, nil
}

// normalizeHost lower-cases the host, converts internationalized names to
// their ASCII (punycode) form and drops the scheme's default port.
func normalizeHost(scheme, host string) (string, error) {
	hostname, port, err := net.SplitHostPort(host)
	if err != nil {
		// No port present.
		hostname, port = strings.Trim(host, "[]"), ""
	}

	hostname, err = asciiHostname(hostname)
	if err != nil {
		return "", err
	}
	if strings.Contains(hostname, ":") {
		hostname = "[" + hostname + "]"
	}
	if port == "" || port == defaultPorts[scheme] {
		return hostname, nil
	}
	return hostname + ":" + port, nil
}

// asciiHostname lower-cases hostname and maps non-ASCII labels to punycode.
// Pure ASCII names skip the IDNA profile, which rejects underscores that
// real hosts sometimes carry.
func asciiHostname(hostname string) (string, error) {
	for i := 0; i < len(hostname); i++ {
		if hostname[i] >= utf8.RuneSelf {
			return idna.Lookup.ToASCII(hostname)
		}
	}
	return strings.ToLower(hostname), nil
}

// trimTrailingSlashes removes trailing slashes from a non-root path.
// Removing all of them (not just one) keeps Normalize idempotent for inputs
// such as "/a//".
func trimTrailingSlashes(p string) string {
	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" {
		return "/"
	}
	return trimmed
}

// Equal reports whether a and b normalize to the same value.
// Inputs that fail to normalize are never equal to anything.
func Equal(a, b string) bool {
	na, err := Normalize(a, nil)
	if err != nil {
		return false
	}
	nb, err := Normalize(b, nil)
	if err != nil {
		return false
	}
	return na == nb
}

// Origin returns "scheme://host[:port]" of raw after normalization.
func Origin(raw string) (string, error) {
	u, err := Parse(raw, nil)
	if err != nil {
		return "", err
	}
	return u.Scheme + "://" + u.Host, nil
}

// SameOrigin reports whether a and b share scheme, host and port.
func SameOrigin(a, b string) bool {
	oa, err := Origin(a)
	if err != nil {
		return false
	}
	ob, err := Origin(b)
	if err != nil {
		return false
	}
	return oa == ob
}

// FirstSegment returns the first non-empty path segment of raw, or "" for
// root URLs and unparseable input.
func FirstSegment(raw string) string {
	u, err := Parse(raw, nil)
	if err != nil {
		return ""
	}
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			return seg
		}
	}
	return ""
}

// RequestPath returns the path plus query of raw, as matched against robots
// rules. Unparseable input yields "/".
func RequestPath(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "/"
	}
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}
