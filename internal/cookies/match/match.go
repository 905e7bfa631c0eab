// Package match implements the RFC 6265 domain and path rules used to
// decide which stored cookies apply to a request.
package match

import (
	"net"
	"slices"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// specialUseDomains are the reserved top-level names from RFC 6761 that the
// public suffix list does not know about.
var specialUseDomains = []string{"local", "example", "invalid", "localhost", "test"}

// PermuteDomain expands domain into every domain that may own a cookie for it:
// the registrable domain first, then each longer suffix down to domain itself.
// It returns nil when no permutation is available (IP addresses, public
// suffixes, or single-label special-use names when allowSpecialUse is false).
func PermuteDomain(domain string, allowSpecialUse bool) []string {
	domain = Canonical(domain)
	if domain == "" || net.ParseIP(domain) != nil {
		return nil
	}

	base := registrableDomain(domain, allowSpecialUse)
	if base == "" {
		return nil
	}
	if base == domain {
		return []string{domain}
	}

	prefix, ok := strings.CutSuffix(domain, "."+base)
	if !ok {
		return nil
	}

	labels := strings.Split(prefix, ".")
	permutations := make([]string, 0, len(labels)+1)
	current := base
	permutations = append(permutations, current)
	for i := len(labels) - 1; i >= 0; i-- {
		current = labels[i] + "." + current
		permutations = append(permutations, current)
	}
	return permutations
}

func registrableDomain(domain string, allowSpecialUse bool) string {
	labels := strings.Split(domain, ".")
	tld := labels[len(labels)-1]

	if slices.Contains(specialUseDomains, tld) {
		if len(labels) > 1 {
			return labels[len(labels)-2] + "." + tld
		}
		if allowSpecialUse {
			return tld
		}
		return ""
	}

	etldPlusOne, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		return ""
	}
	return etldPlusOne
}

// IsPublicSuffix reports whether domain is itself a public suffix such as
// "com" or "co.uk".
func IsPublicSuffix(domain string) bool {
	domain = Canonical(domain)
	if domain == "" || net.ParseIP(domain) != nil {
		return false
	}
	suffix, _ := publicsuffix.PublicSuffix(domain)
	return suffix == domain
}

// Canonical lower-cases domain and strips surrounding whitespace, a leading
// dot and a trailing dot.
func Canonical(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimPrefix(domain, ".")
	return strings.TrimSuffix(domain, ".")
}

// PathMatch reports whether cookiePath path-matches requestPath
// (RFC 6265 section 5.1.4).
func PathMatch(requestPath, cookiePath string) bool {
	if cookiePath == requestPath {
		return true
	}
	if !strings.HasPrefix(requestPath, cookiePath) {
		return false
	}
	if strings.HasSuffix(cookiePath, "/") {
		return true
	}
	return requestPath[len(cookiePath)] == '/'
}

// DefaultPath computes the default cookie path for a request URI path
// (RFC 6265 section 5.1.4).
func DefaultPath(requestPath string) string {
	if requestPath == "" || requestPath[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(requestPath, "/")
	if i == 0 {
		return "/"
	}
	return requestPath[:i]
}

// DomainMatch reports whether host domain-matches domain
// (RFC 6265 section 5.1.3).
func DomainMatch(host, domain string) bool {
	host = Canonical(host)
	domain = Canonical(domain)
	if host == domain {
		return true
	}
	if net.ParseIP(host) != nil {
		return false
	}
	return strings.HasSuffix(host, "."+domain)
}
