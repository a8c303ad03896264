// Package proxy holds the data model shared across the ingest and
// validation pipeline: the opaque URI string, its content hash, and the
// transient per-run parsed view.
package proxy

import (
	"crypto/sha1" //nolint:gosec // ledger digest, not used for security
	"strconv"
	"strings"

	"github.com/samber/mo"
)

// URI is an opaque scheme-prefixed proxy URI string, e.g.
// "vless://...". It is immutable and is uniquely identified by its full
// string, and separately by its content Hash.
type URI string

// Hash returns the 20-byte SHA-1 digest of the UTF-8 bytes of u, the
// canonical identity used by the dedup ledger.
func (u URI) Hash() [20]byte {
	return sha1.Sum([]byte(u)) //nolint:gosec
}

// Scheme extracts the scheme prefix of u, e.g. "vless" from
// "vless://...". Returns ("", false) if u has no recognized prefix.
func (u URI) Scheme() (Scheme, bool) {
	s := string(u)
	idx := strings.Index(s, "://")
	if idx <= 0 {
		return "", false
	}
	return ParseScheme(s[:idx])
}

// Parsed is the derived, transient-within-one-run view of a URI.
type Parsed struct {
	Scheme  Scheme
	Host    string // IDNA-encoded domain, or IP literal
	Port    mo.Option[int]
	TLSHint bool
	Remark  string
	Raw     URI
}

// HostPort renders "host:port" when Port is present, else just Host.
func (p Parsed) HostPort() string {
	if p.Port.IsPresent() {
		return p.Host + ":" + strconv.Itoa(p.Port.MustGet())
	}
	return p.Host
}
