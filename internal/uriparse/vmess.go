package uriparse

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/mo"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/sakha1370/openray/internal/domain/proxy"
)

// parseVMess decodes the base64(JSON) body of a vmess:// URI. Host comes
// from "add"/"address"/"host"; port from "port" (coerced from either a
// JSON number or numeric string); remark from "ps".
func parseVMess(u proxy.URI) (proxy.Parsed, error) {
	body := strings.TrimPrefix(string(u), "vmess://")
	decoded, err := decodeLenientBase64(body)
	if err != nil {
		return proxy.Parsed{}, fmt.Errorf("vmess: decode base64: %w", err)
	}
	if !gjson.ValidBytes(decoded) {
		return proxy.Parsed{}, fmt.Errorf("vmess: decoded body is not valid JSON")
	}
	root := gjson.ParseBytes(decoded)

	host := firstNonEmpty(root.Get("add").String(), root.Get("address").String(), root.Get("host").String())
	if host == "" {
		return proxy.Parsed{}, fmt.Errorf("vmess: missing add/address/host")
	}

	var port int
	portResult := root.Get("port")
	switch {
	case portResult.Type == gjson.Number:
		port = int(portResult.Num)
	case portResult.Type == gjson.String:
		p, ok := validPort(portResult.Str)
		if !ok {
			return proxy.Parsed{}, fmt.Errorf("vmess: invalid port %q", portResult.Str)
		}
		port = p
	default:
		return proxy.Parsed{}, fmt.Errorf("vmess: missing port")
	}
	if port < 1 || port > 65535 {
		return proxy.Parsed{}, fmt.Errorf("vmess: port out of range: %d", port)
	}

	tlsHint := root.Get("tls").String() == "tls"

	return proxy.Parsed{
		Scheme:  proxy.SchemeVMess,
		Host:    encodeHost(host),
		Port:    mo.Some(port),
		TLSHint: tlsHint,
		Remark:  root.Get("ps").String(),
		Raw:     u,
	}, nil
}

// rewriteVMessRemark decodes the vmess JSON, replaces "ps", and
// re-encodes. Every other key is preserved byte-for-byte by round-
// tripping through sjson.SetBytes rather than a full unmarshal/marshal,
// so fields this system doesn't model survive untouched.
func rewriteVMessRemark(u proxy.URI, remark string) (proxy.URI, error) {
	body := strings.TrimPrefix(string(u), "vmess://")
	decoded, err := decodeLenientBase64(body)
	if err != nil {
		return "", fmt.Errorf("vmess: decode base64: %w", err)
	}
	updated, err := sjson.SetBytes(decoded, "ps", remark)
	if err != nil {
		return "", fmt.Errorf("vmess: set ps: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(updated)
	return proxy.URI("vmess://" + encoded), nil
}

// VMessUUID returns the decoded "id" field of a vmess:// URI's JSON
// body, the client UUID the Core Validator's outbound renderer needs.
func VMessUUID(u proxy.URI) (string, error) {
	body := strings.TrimPrefix(string(u), "vmess://")
	decoded, err := decodeLenientBase64(body)
	if err != nil {
		return "", fmt.Errorf("vmess: decode base64: %w", err)
	}
	if !gjson.ValidBytes(decoded) {
		return "", fmt.Errorf("vmess: decoded body is not valid JSON")
	}
	id := gjson.ParseBytes(decoded).Get("id").String()
	if id == "" {
		return "", fmt.Errorf("vmess: missing id")
	}
	return id, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
