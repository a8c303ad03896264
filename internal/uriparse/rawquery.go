package uriparse

import (
	"net/url"

	"github.com/sakha1370/openray/internal/domain/proxy"
)

// ParseRawQuery parses a vless:// or trojan:// URI with net/url, giving
// the Core Validator's outbound renderers access to the userinfo
// (UUID/password) and query parameters without duplicating scheme-
// specific parsing already done by Parse.
func ParseRawQuery(u proxy.URI) (*url.URL, error) {
	return url.Parse(string(u))
}
