package uriparse

import (
	"net/url"
	"strings"

	"github.com/sakha1370/openray/internal/domain/proxy"
)

// setURLFragment replaces everything from the first "#" onward with a
// percent-encoded remark, leaving the rest of the URI untouched. This is
// the non-vmess half of the round-trip law: strip_fragment(set_remark(u,
// r))#decode(fragment) == (u_without_fragment, r).
func setURLFragment(u proxy.URI, remark string) proxy.URI {
	s := string(u)
	if idx := strings.IndexByte(s, '#'); idx >= 0 {
		s = s[:idx]
	}
	return proxy.URI(s + "#" + url.PathEscape(remark))
}

// StripFragment returns the URI with its fragment removed and the
// decoded fragment value, the inverse of setURLFragment.
func StripFragment(u proxy.URI) (proxy.URI, string) {
	s := string(u)
	idx := strings.IndexByte(s, '#')
	if idx < 0 {
		return u, ""
	}
	frag := s[idx+1:]
	decoded, err := url.PathUnescape(frag)
	if err != nil {
		decoded = frag
	}
	return proxy.URI(s[:idx]), decoded
}
