package proxy

import "strings"

// Scheme is the sum type over the ten proxy-URI schemes this system
// understands. Consumers switch on Scheme rather than poking at the
// string prefix directly.
type Scheme string

const (
	SchemeVMess     Scheme = "vmess"
	SchemeVLESS     Scheme = "vless"
	SchemeTrojan    Scheme = "trojan"
	SchemeSS        Scheme = "ss"
	SchemeSSR       Scheme = "ssr"
	SchemeHysteria  Scheme = "hysteria"
	SchemeHysteria2 Scheme = "hysteria2"
	SchemeHy2       Scheme = "hy2"
	SchemeTUIC      Scheme = "tuic"
	SchemeJuicity   Scheme = "juicity"
)

// AllSchemes lists every recognized scheme, in the order they appear in
// the extraction regex.
var AllSchemes = []Scheme{
	SchemeVMess, SchemeVLESS, SchemeTrojan, SchemeSS, SchemeSSR,
	SchemeHysteria, SchemeHysteria2, SchemeHy2, SchemeTUIC, SchemeJuicity,
}

// ParseScheme recognizes a scheme prefix case-insensitively. It returns
// ("", false) for anything not in AllSchemes.
func ParseScheme(s string) (Scheme, bool) {
	lower := strings.ToLower(s)
	for _, sc := range AllSchemes {
		if string(sc) == lower {
			return sc, true
		}
	}
	return "", false
}

// TCPNative reports whether this scheme speaks directly over a TCP
// connection to the declared port, making it eligible for Stage 2 (port
// probe). Hysteria/Hysteria2/hy2/TUIC run over QUIC/UDP and are never
// subjected to Stage 2.
func (s Scheme) TCPNative() bool {
	switch s {
	case SchemeVMess, SchemeVLESS, SchemeTrojan, SchemeSS, SchemeSSR:
		return true
	default:
		return false
	}
}

// CoreSupported reports whether Stage 3 can render an outbound for this
// scheme. Per spec, only VLESS, VMess and Trojan are currently
// supported; everything else yields a null (unavailable) Stage 3 result.
func (s Scheme) CoreSupported() bool {
	switch s {
	case SchemeVLESS, SchemeVMess, SchemeTrojan:
		return true
	default:
		return false
	}
}
