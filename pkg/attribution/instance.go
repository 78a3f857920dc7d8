// Package attribution validates and picks the "host:port" instance an
// incident is attributed to, per §4.5.
package attribution

import (
	"net"
	"regexp"
	"strconv"
	"strings"
)

// Unknown is returned by PickPrimary when no candidate passes validation.
const Unknown = "unknown"

var hostPortPattern = regexp.MustCompile(`^[A-Za-z0-9.-]+(:[0-9]{1,5})?$`)

// LooksLikeInstance accepts only: IPv4 with optional port, a hostname of
// letters/digits/./- with optional port, or a bracketed IPv6 with optional
// port. Free-form phrases ("all nodes", "blast radius") are rejected.
func LooksLikeInstance(s string) bool {
	if s == "" {
		return false
	}

	if strings.HasPrefix(s, "[") {
		return looksLikeBracketedIPv6(s)
	}

	// A bare IPv6 address without brackets is not an accepted instance form
	// — callers must bracket it, matching how host:port splitting would
	// otherwise be ambiguous with the address's own colons.
	if strings.Count(s, ":") > 1 {
		return false
	}

	if !hostPortPattern.MatchString(s) {
		return false
	}

	host, port, hasPort := splitHostPort(s)
	if hasPort && !validPort(port) {
		return false
	}

	if ip := net.ParseIP(host); ip != nil {
		return ip.To4() != nil
	}

	// Bare hostnames without a port are not an accepted "host:port" form.
	return hasPort && looksLikeHostname(host)
}

func looksLikeBracketedIPv6(s string) bool {
	end := strings.Index(s, "]")
	if end < 0 {
		return false
	}
	addr := s[1:end]
	if net.ParseIP(addr) == nil || net.ParseIP(addr).To4() != nil {
		return false
	}

	rest := s[end+1:]
	if rest == "" {
		return true
	}
	if !strings.HasPrefix(rest, ":") {
		return false
	}
	return validPort(rest[1:])
}

func splitHostPort(s string) (host, port string, hasPort bool) {
	idx := strings.LastIndex(s, ":")
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+1:], true
}

func validPort(s string) bool {
	if s == "" {
		return false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

func looksLikeHostname(host string) bool {
	if host == "" {
		return false
	}
	for _, r := range host {
		if !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') &&
			!(r >= '0' && r <= '9') && r != '.' && r != '-' {
			return false
		}
	}
	return true
}

// ParseInstance splits an instance string into host and optional port,
// handling bracketed IPv6 addresses.
func ParseInstance(s string) (host, port string) {
	if strings.HasPrefix(s, "[") {
		end := strings.Index(s, "]")
		if end < 0 {
			return s, ""
		}
		host = s[1:end]
		rest := s[end+1:]
		if strings.HasPrefix(rest, ":") {
			port = rest[1:]
		}
		return host, port
	}

	h, p, hasPort := splitHostPort(s)
	if !hasPort {
		return s, ""
	}
	return h, p
}

// PickPrimary returns the first string from, in order: analysis anomalies'
// instances, incident evidence entries' instances, raw metric samples'
// instances — that passes LooksLikeInstance. If none pass, returns Unknown.
func PickPrimary(anomalyInstances, evidenceInstances, metricInstances []string) string {
	for _, candidates := range [][]string{anomalyInstances, evidenceInstances, metricInstances} {
		for _, c := range candidates {
			if LooksLikeInstance(c) {
				return c
			}
		}
	}
	return Unknown
}
