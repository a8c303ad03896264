package uriparse

import (
	"net"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

// validPort reports whether s parses as a port in 1..65535. Rejects 0,
// values above 65535, negatives, and non-numeric strings.
func validPort(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	if n < 1 || n > 65535 {
		return 0, false
	}
	return n, true
}

// encodeHost IDNA-encodes a domain host for use as ParsedProxy.Host.
// IP literals (including bracketed IPv6) and already-ASCII hosts pass
// through unchanged if IDNA encoding fails or is a no-op.
func encodeHost(h string) string {
	h = strings.TrimPrefix(h, "[")
	h = strings.TrimSuffix(h, "]")
	if h == "" {
		return h
	}
	if ip := net.ParseIP(h); ip != nil {
		return h
	}
	encoded, err := idna.Lookup.ToASCII(h)
	if err != nil {
		return h
	}
	return encoded
}

// splitHostPortLenient splits "host:port" respecting bracketed IPv6
// literals, falling back to treating the whole string as a host with no
// port when there is no unambiguous split point.
func splitHostPortLenient(hostport string) (host string, port string) {
	if strings.HasPrefix(hostport, "[") {
		if idx := strings.Index(hostport, "]"); idx >= 0 {
			host = hostport[1:idx]
			rest := hostport[idx+1:]
			if strings.HasPrefix(rest, ":") {
				port = rest[1:]
			}
			return host, port
		}
	}
	if idx := strings.LastIndex(hostport, ":"); idx >= 0 && !strings.Contains(hostport[idx+1:], ":") {
		return hostport[:idx], hostport[idx+1:]
	}
	return hostport, ""
}
