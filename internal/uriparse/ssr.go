package uriparse

import (
	"fmt"
	"strings"

	"github.com/samber/mo"

	"github.com/sakha1370/openray/internal/domain/proxy"
)

// parseSSR handles ssr://, base64 of
// "host:port:protocol:method:obfs:pass_b64/?params". Port is the second
// colon-delimited field.
func parseSSR(u proxy.URI) (proxy.Parsed, error) {
	body := strings.TrimPrefix(string(u), "ssr://")
	if idx := strings.IndexByte(body, '#'); idx >= 0 {
		body = body[:idx]
	}
	decoded, err := decodeLenientBase64(body)
	if err != nil {
		return proxy.Parsed{}, fmt.Errorf("ssr: decode base64: %w", err)
	}
	text := string(decoded)
	if idx := strings.IndexByte(text, '/'); idx >= 0 {
		text = text[:idx]
	}

	fields := strings.SplitN(text, ":", 6)
	if len(fields) < 6 {
		return proxy.Parsed{}, fmt.Errorf("ssr: expected 6 colon-delimited fields, got %d", len(fields))
	}
	host := fields[0]
	port, ok := validPort(fields[1])
	if !ok {
		return proxy.Parsed{}, fmt.Errorf("ssr: invalid port %q", fields[1])
	}

	return proxy.Parsed{
		Scheme:  proxy.SchemeSSR,
		Host:    encodeHost(host),
		Port:    mo.Some(port),
		TLSHint: false, // SSR obfuscates at the transport layer, never plain TLS
		Raw:     u,
	}, nil
}
