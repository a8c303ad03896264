// Package geo resolves a host/IP to a two-letter country code for the
// Geo-Tagger: an MMDB lookup when available, falling back to
// ip-api.com, with a persistent cache shared across runs.
package geo

import "strings"

// UnknownCC is the country code used when no lookup succeeds.
const UnknownCC = "XX"

// CountryFlag renders the regional-indicator-symbol flag emoji for a
// two-letter country code, the same codepoint-arithmetic the upstream
// Python implementation's geo module uses. An invalid or unknown code
// renders as a globe.
func CountryFlag(cc string) string {
	cc = strings.ToUpper(cc)
	if len(cc) != 2 || cc[0] < 'A' || cc[0] > 'Z' || cc[1] < 'A' || cc[1] > 'Z' {
		return "🌐"
	}
	r1 := rune(0x1F1E6 + int(cc[0]-'A'))
	r2 := rune(0x1F1E6 + int(cc[1]-'A'))
	return string([]rune{r1, r2})
}
