package utils

import (
	"net"
	"net/url"
	"strings"
)

// IsAllowedOrigin reports whether an Origin header value should be trusted.
// Localhost, RFC1918 and link-local addresses, .local mDNS names and
// single-label LAN hostnames are allowed; public internet origins are not.
func IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}

	host := parsed.Hostname()
	switch {
	case host == "localhost":
		return true
	case strings.HasSuffix(host, ".local"):
		return true
	case !strings.Contains(host, "."):
		// single-label names only resolve on the LAN
		return true
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}
