package uriparse

import (
	"fmt"

	"github.com/sakha1370/openray/internal/domain/proxy"
)

// Parse dispatches a single URI to its scheme-specific parser. A
// malformed URI returns a non-nil error; callers (the Ingestor/
// Coordinator) drop it silently per spec and never abort the run.
func Parse(u proxy.URI) (proxy.Parsed, error) {
	scheme, ok := u.Scheme()
	if !ok {
		return proxy.Parsed{}, fmt.Errorf("uriparse: unrecognized scheme in %q", string(u))
	}

	switch scheme {
	case proxy.SchemeVMess:
		return parseVMess(u)
	case proxy.SchemeSS:
		return parseSS(u)
	case proxy.SchemeSSR:
		return parseSSR(u)
	case proxy.SchemeVLESS, proxy.SchemeTrojan, proxy.SchemeHysteria,
		proxy.SchemeHysteria2, proxy.SchemeHy2, proxy.SchemeTUIC, proxy.SchemeJuicity:
		return parseGeneric(u, scheme)
	default:
		return proxy.Parsed{}, fmt.Errorf("uriparse: unsupported scheme %q", scheme)
	}
}

// ParseAll parses every URI in uris, dropping parse failures silently
// and returning only the successfully parsed subset in the same order.
func ParseAll(uris []proxy.URI) []proxy.Parsed {
	out := make([]proxy.Parsed, 0, len(uris))
	for _, u := range uris {
		p, err := Parse(u)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}

// RewriteRemark returns a copy of u with its remark set to remark,
// following the vmess-JSON-field vs URL-fragment distinction.
func RewriteRemark(u proxy.URI, remark string) (proxy.URI, error) {
	scheme, ok := u.Scheme()
	if !ok {
		return "", fmt.Errorf("uriparse: unrecognized scheme in %q", string(u))
	}
	if scheme == proxy.SchemeVMess {
		return rewriteVMessRemark(u, remark)
	}
	return setURLFragment(u, remark), nil
}
