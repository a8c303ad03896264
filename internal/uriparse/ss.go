package uriparse

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/samber/mo"

	"github.com/sakha1370/openray/internal/domain/proxy"
)

// parseSS handles ss://. The main payload (before "#" and "?") may be
// base64 of "method:pass@host:port", or a direct SIP002 URL of the same
// shape. IPv6 brackets are respected either way.
func parseSS(u proxy.URI) (proxy.Parsed, error) {
	raw := strings.TrimPrefix(string(u), "ss://")
	if idx := strings.IndexByte(raw, '#'); idx >= 0 {
		raw = raw[:idx]
	}
	main := raw
	if idx := strings.IndexByte(main, '?'); idx >= 0 {
		main = main[:idx]
	}

	host, port, tlsHint, err := parseSSMain(main, u)
	if err != nil {
		return proxy.Parsed{}, err
	}

	return proxy.Parsed{
		Scheme:  proxy.SchemeSS,
		Host:    encodeHost(host),
		Port:    mo.Some(port),
		TLSHint: tlsHint,
		Raw:     u,
	}, nil
}

func parseSSMain(main string, full proxy.URI) (host string, port int, tlsHint bool, err error) {
	// Direct form: method:pass@host:port (SIP002)
	if atIdx := strings.LastIndex(main, "@"); atIdx >= 0 {
		hostport := main[atIdx+1:]
		h, p := splitHostPortLenient(hostport)
		if pn, ok := validPort(p); ok {
			return h, pn, tlsLikely(string(full)), nil
		}
	}

	// Base64 form: base64("method:pass@host:port")
	decoded, derr := decodeLenientBase64(main)
	if derr == nil {
		text := string(decoded)
		if atIdx := strings.LastIndex(text, "@"); atIdx >= 0 {
			hostport := text[atIdx+1:]
			h, p := splitHostPortLenient(hostport)
			if pn, ok := validPort(p); ok {
				return h, pn, tlsLikely(string(full)), nil
			}
		}
	}

	return "", 0, false, fmt.Errorf("ss: unable to locate host:port")
}

// tlsLikely implements the query-string half of the "TLS-likely"
// heuristic used by the SS and generic parsers: security=tls /
// security=reality / tls=1 / tls=true. The well-known-port half is
// TLSLikelyPort.
func tlsLikely(rawURI string) bool {
	lower := strings.ToLower(rawURI)
	if strings.Contains(lower, "security=tls") || strings.Contains(lower, "tls=1") || strings.Contains(lower, "tls=true") {
		return true
	}
	if idx := strings.IndexByte(rawURI, '?'); idx >= 0 {
		if q, err := url.ParseQuery(rawURI[idx+1:]); err == nil {
			switch strings.ToLower(q.Get("security")) {
			case "tls", "reality":
				return true
			}
		}
	}
	return false
}

var wellKnownTLSPorts = map[int]struct{}{
	443: {}, 8443: {}, 2053: {}, 2083: {}, 2087: {}, 2096: {}, 444: {}, 10443: {},
}

// TLSLikelyPort reports whether port is one of the well-known TLS ports
// used by the Stage 2 "TLS-likely" heuristic.
func TLSLikelyPort(port int) bool {
	_, ok := wellKnownTLSPorts[port]
	return ok
}
