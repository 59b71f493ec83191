package fetch

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// ErrInvalidDomain is the one condition surfaced to callers as a rejected
// invocation: without a usable domain there is nothing to even attempt.
var ErrInvalidDomain = errors.New("invalid domain")

// NormalizeDomain turns user input ("HTTPS://Shop.Example.COM/x", "shop.example.com.")
// into the bare lower-case host the fetcher builds URLs from. Unicode domains
// are converted to their ASCII (punycode) form.
func NormalizeDomain(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", fmt.Errorf("%w: empty input", ErrInvalidDomain)
	}

	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidDomain, err)
		}
		if u.Scheme != "https" && u.Scheme != "http" {
			return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidDomain, u.Scheme)
		}
		s = u.Hostname()
	} else {
		// Bare host, possibly with a path or port tacked on.
		if i := strings.IndexByte(s, '/'); i >= 0 {
			s = s[:i]
		}
		if i := strings.IndexByte(s, ':'); i >= 0 {
			s = s[:i]
		}
	}

	s = strings.TrimSuffix(strings.ToLower(s), ".")
	if s == "" {
		return "", fmt.Errorf("%w: no host in %q", ErrInvalidDomain, input)
	}

	ascii, err := idna.Lookup.ToASCII(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDomain, err)
	}
	if !strings.Contains(ascii, ".") {
		return "", fmt.Errorf("%w: %q is not a registrable host", ErrInvalidDomain, input)
	}
	return ascii, nil
}

// RegistrableDomain returns the eTLD+1 for a normalized host, falling back to
// the host itself for private suffixes. The directory store groups merchants
// by this value.
func RegistrableDomain(host string) string {
	reg, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return reg
}
