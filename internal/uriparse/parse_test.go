package uriparse

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakha1370/openray/internal/domain/proxy"
)

func TestExtractDeduplicatesPreservingOrder(t *testing.T) {
	text := "see vless://a@1.2.3.4:443?security=tls#x and again vless://a@1.2.3.4:443?security=tls#x then trojan://p@5.6.7.8:443#y"
	got := Extract(text)
	require.Len(t, got, 2)
	assert.Equal(t, proxy.URI("vless://a@1.2.3.4:443?security=tls#x"), got[0])
	assert.Equal(t, proxy.URI("trojan://p@5.6.7.8:443#y"), got[1])
}

func TestExtractStripsTrailingPunctuation(t *testing.T) {
	text := "(vless://a@1.2.3.4:443?security=tls#x)"
	got := Extract(text)
	require.Len(t, got, 1)
	assert.Equal(t, proxy.URI("vless://a@1.2.3.4:443?security=tls#x"), got[0])
}

func TestParseVLESS(t *testing.T) {
	u := proxy.URI("vless://aaaa-bbbb-cccc-dddd-eeee-ffff-0000-1111@1.2.3.4:443?security=tls#node1")
	p, err := Parse(u)
	require.NoError(t, err)
	assert.Equal(t, proxy.SchemeVLESS, p.Scheme)
	assert.Equal(t, "1.2.3.4", p.Host)
	assert.True(t, p.Port.IsPresent())
	assert.Equal(t, 443, p.Port.MustGet())
	assert.True(t, p.TLSHint)
	assert.Equal(t, "node1", p.Remark)
}

func TestParseVMess(t *testing.T) {
	body := `{"add":"example.com","port":"443","id":"uuid","ps":"my-node","tls":"tls"}`
	encoded := base64.StdEncoding.EncodeToString([]byte(body))
	u := proxy.URI("vmess://" + encoded)
	p, err := Parse(u)
	require.NoError(t, err)
	assert.Equal(t, proxy.SchemeVMess, p.Scheme)
	assert.Equal(t, "example.com", p.Host)
	assert.Equal(t, 443, p.Port.MustGet())
	assert.True(t, p.TLSHint)
	assert.Equal(t, "my-node", p.Remark)
}

func TestParseVMessRejectsMissingPort(t *testing.T) {
	body := `{"add":"example.com","id":"uuid"}`
	encoded := base64.StdEncoding.EncodeToString([]byte(body))
	_, err := Parse(proxy.URI("vmess://" + encoded))
	assert.Error(t, err)
}

func TestParseSSDirectForm(t *testing.T) {
	userinfo := base64.StdEncoding.EncodeToString([]byte("aes-256-gcm:pass"))
	u := proxy.URI("ss://" + userinfo + "@5.6.7.8:8388#x")
	p, err := Parse(u)
	require.NoError(t, err)
	assert.Equal(t, proxy.SchemeSS, p.Scheme)
	assert.Equal(t, "5.6.7.8", p.Host)
	assert.Equal(t, 8388, p.Port.MustGet())
}

func TestParseSSIPv6(t *testing.T) {
	userinfo := base64.StdEncoding.EncodeToString([]byte("aes-256-gcm:pass"))
	u := proxy.URI("ss://" + userinfo + "@[2001:db8::1]:8388#x")
	p, err := Parse(u)
	require.NoError(t, err)
	assert.Equal(t, "2001:db8::1", p.Host)
	assert.Equal(t, 8388, p.Port.MustGet())
}

func TestParseSSR(t *testing.T) {
	payload := "host.example.com:8989:origin:aes-256-cfb:plain:cGFzcw/?remarks=eA"
	encoded := base64.StdEncoding.EncodeToString([]byte(payload))
	u := proxy.URI("ssr://" + encoded)
	p, err := Parse(u)
	require.NoError(t, err)
	assert.Equal(t, proxy.SchemeSSR, p.Scheme)
	assert.Equal(t, "host.example.com", p.Host)
	assert.Equal(t, 8989, p.Port.MustGet())
}

func TestParseHysteria2(t *testing.T) {
	u := proxy.URI("hysteria2://secret@9.9.9.9:36712?sni=example.com#hy2node")
	p, err := Parse(u)
	require.NoError(t, err)
	assert.Equal(t, proxy.SchemeHysteria2, p.Scheme)
	assert.Equal(t, "9.9.9.9", p.Host)
	assert.Equal(t, 36712, p.Port.MustGet())
}

func TestPortValidationBoundaries(t *testing.T) {
	cases := map[string]bool{
		"0":     false,
		"65536": false,
		"-1":    false,
		"abc":   false,
		"1":     true,
		"65535": true,
		"443":   true,
	}
	for in, want := range cases {
		_, ok := validPort(in)
		assert.Equalf(t, want, ok, "validPort(%q)", in)
	}
}

func TestRewriteRemarkNonVMessRoundTrip(t *testing.T) {
	u := proxy.URI("trojan://pass@h:443?security=tls#old")
	rewritten, err := RewriteRemark(u, "[OpenRay] 🇺🇸 US-1")
	require.NoError(t, err)
	stripped, remark := StripFragment(rewritten)
	assert.Equal(t, proxy.URI("trojan://pass@h:443?security=tls"), stripped)
	assert.Equal(t, "[OpenRay] 🇺🇸 US-1", remark)
}

func TestRewriteRemarkVMessPreservesOtherFields(t *testing.T) {
	body := `{"add":"example.com","port":"443","id":"uuid","ps":"old","net":"ws"}`
	encoded := base64.StdEncoding.EncodeToString([]byte(body))
	u := proxy.URI("vmess://" + encoded)

	rewritten, err := RewriteRemark(u, "new-remark")
	require.NoError(t, err)

	before, err := Parse(u)
	require.NoError(t, err)
	after, err := Parse(rewritten)
	require.NoError(t, err)

	assert.Equal(t, "new-remark", after.Remark)
	assert.Equal(t, before.Host, after.Host)
	assert.Equal(t, before.Port, after.Port)
}

func TestExtractLengthMinusMultiplicity(t *testing.T) {
	uris := []string{
		"vless://a@1.1.1.1:443#x",
		"vless://a@1.1.1.1:443#x",
		"vless://a@1.1.1.1:443#x",
		"trojan://b@2.2.2.2:443#y",
	}
	text := ""
	for _, u := range uris {
		text += u + "\n"
	}
	got := Extract(text)
	assert.Len(t, got, 2) // N=4, M=2 duplicates of "x", unique = 2
}
