// Package uriparse extracts proxy URIs from free-form subscription text
// and parses each one into its scheme-tagged host/port/metadata view.
package uriparse

import (
	"regexp"
	"strings"

	"github.com/sakha1370/openray/internal/domain/proxy"
)

// extractRe matches any of the ten recognized scheme prefixes followed
// by a run of non-whitespace, non-bracket characters. Matching is
// case-insensitive per spec.
var extractRe = regexp.MustCompile(
	`(?i)\b(vmess|vless|trojan|ss|ssr|hysteria2|hysteria|hy2|tuic|juicity)://[^\s<>"']+`,
)

// trailingCutset is the set of trailing characters stripped from a
// raw match, typically picked up from surrounding markdown or HTML.
const trailingCutset = ")>,;\"'\n\r"

// HasURI reports whether text contains any substring matching the
// proxy-URI regex, the has_uri(t) predicate the Ingestor's decoding
// algorithm probes after each base64 round.
func HasURI(text string) bool {
	return extractRe.MatchString(text)
}

// Extract returns an order-preserving, deduplicated list of proxy URIs
// found in text. Duplicates within the extraction (by exact string
// equality) are dropped, keeping the first occurrence's position.
func Extract(text string) []proxy.URI {
	matches := extractRe.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]proxy.URI, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimRight(m, trailingCutset)
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, proxy.URI(m))
	}
	return out
}
