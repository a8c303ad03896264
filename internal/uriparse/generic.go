package uriparse

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/samber/mo"

	"github.com/sakha1370/openray/internal/domain/proxy"
)

// hostPortFallbackRe matches "host:port" with a 2-5 digit port anywhere
// in the URI, used when RFC 3986 parsing yields no valid port
// (some hysteria2/tuic/juicity links in the wild are malformed URLs).
var hostPortFallbackRe = regexp.MustCompile(`([A-Za-z0-9.\-]+|\[[0-9A-Fa-f:]+\]):([0-9]{2,5})\b`)

// parseGeneric handles vless, trojan, hysteria, hysteria2, hy2, tuic and
// juicity: a standard RFC 3986 URL, host from the authority, port from
// the authority or the "server"/"sv" query parameter, falling back to a
// host:port regex scan over the whole URI.
func parseGeneric(u proxy.URI, scheme proxy.Scheme) (proxy.Parsed, error) {
	raw := string(u)
	parsed, err := url.Parse(raw)

	var host string
	var portStr string
	if err == nil && parsed.Hostname() != "" {
		host = parsed.Hostname()
		portStr = parsed.Port()
		if portStr == "" {
			q := parsed.Query()
			portStr = firstNonEmpty(q.Get("server"), q.Get("sv"))
		}
	}

	var port int
	var ok bool
	if portStr != "" {
		port, ok = validPort(portStr)
	}
	if !ok {
		if m := hostPortFallbackRe.FindStringSubmatch(raw); m != nil {
			if p, pok := validPort(m[2]); pok {
				if host == "" {
					host = strings.Trim(m[1], "[]")
				}
				port, ok = p, true
			}
		}
	}

	if host == "" {
		return proxy.Parsed{}, fmt.Errorf("%s: missing host", scheme)
	}

	p := proxy.Parsed{
		Scheme:  scheme,
		Host:    encodeHost(host),
		TLSHint: tlsLikely(raw) || (ok && TLSLikelyPort(port)),
		Raw:     u,
	}
	if ok {
		p.Port = mo.Some(port)
	}
	if err == nil {
		p.Remark = parsed.Fragment
	}
	return p, nil
}
