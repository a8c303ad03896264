package stage3

import (
	"encoding/json"
	"fmt"

	"github.com/sakha1370/openray/internal/domain/proxy"
	"github.com/sakha1370/openray/internal/uriparse"
)

type coreConfig struct {
	Log       logConfig      `json:"log"`
	Inbounds  []inboundSpec  `json:"inbounds"`
	Outbounds []outboundSpec `json:"outbounds"`
}

type logConfig struct {
	LogLevel string `json:"loglevel"`
}

type inboundSpec struct {
	Port     int    `json:"port"`
	Listen   string `json:"listen"`
	Protocol string `json:"protocol"`
}

type outboundSpec struct {
	Protocol       string          `json:"protocol"`
	Settings       json.RawMessage `json:"settings"`
	StreamSettings json.RawMessage `json:"streamSettings,omitempty"`
}

// ErrUnsupportedScheme marks a scheme Stage 3 cannot render an outbound
// for, which the caller maps to the null (core-unavailable) verdict.
var ErrUnsupportedScheme = fmt.Errorf("stage3: unsupported scheme for core validation")

// RenderConfig builds a minimal core config validating p through a
// local HTTP inbound on inboundPort. Only vless, vmess, and trojan
// have outbound renderers; every other scheme returns
// ErrUnsupportedScheme.
func RenderConfig(p proxy.Parsed, inboundPort int) ([]byte, error) {
	port, ok := p.Port.Get()
	if !ok {
		return nil, fmt.Errorf("stage3: no port for %s", p.Raw)
	}

	var outbound outboundSpec
	var err error
	switch p.Scheme {
	case proxy.SchemeVLESS:
		outbound, err = renderVLESS(p, port)
	case proxy.SchemeVMess:
		outbound, err = renderVMess(p, port)
	case proxy.SchemeTrojan:
		outbound, err = renderTrojan(p, port)
	default:
		return nil, ErrUnsupportedScheme
	}
	if err != nil {
		return nil, err
	}

	cfg := coreConfig{
		Log: logConfig{LogLevel: "none"},
		Inbounds: []inboundSpec{{
			Port:     inboundPort,
			Listen:   "127.0.0.1",
			Protocol: "http",
		}},
		Outbounds: []outboundSpec{outbound},
	}
	return json.Marshal(cfg)
}

func streamSettings(p proxy.Parsed) json.RawMessage {
	if !p.TLSHint {
		raw, _ := json.Marshal(map[string]any{"network": "tcp", "security": "none"})
		return raw
	}
	sni := p.Host
	raw, _ := json.Marshal(map[string]any{
		"network":  "tcp",
		"security": "tls",
		"tlsSettings": map[string]any{
			"serverName":    sni,
			"allowInsecure": true,
		},
	})
	return raw
}

func renderVLESS(p proxy.Parsed, port int) (outboundSpec, error) {
	u, err := uriparse.ParseRawQuery(p.Raw)
	if err != nil {
		return outboundSpec{}, err
	}
	uid := u.User.Username()
	flow := u.Query().Get("flow")

	user := map[string]any{"id": uid, "encryption": "none"}
	if flow != "" {
		user["flow"] = flow
	}
	settings, _ := json.Marshal(map[string]any{
		"vnext": []map[string]any{{
			"address": p.Host,
			"port":    port,
			"users":   []map[string]any{user},
		}},
	})
	return outboundSpec{Protocol: "vless", Settings: settings, StreamSettings: streamSettings(p)}, nil
}

func renderTrojan(p proxy.Parsed, port int) (outboundSpec, error) {
	u, err := uriparse.ParseRawQuery(p.Raw)
	if err != nil {
		return outboundSpec{}, err
	}
	password := u.User.Username()
	settings, _ := json.Marshal(map[string]any{
		"servers": []map[string]any{{
			"address":  p.Host,
			"port":     port,
			"password": password,
		}},
	})
	return outboundSpec{Protocol: "trojan", Settings: settings, StreamSettings: streamSettings(p)}, nil
}

func renderVMess(p proxy.Parsed, port int) (outboundSpec, error) {
	id, err := uriparse.VMessUUID(p.Raw)
	if err != nil {
		return outboundSpec{}, err
	}
	settings, _ := json.Marshal(map[string]any{
		"vnext": []map[string]any{{
			"address": p.Host,
			"port":    port,
			"users":   []map[string]any{{"id": id, "alterId": 0, "security": "auto"}},
		}},
	})
	return outboundSpec{Protocol: "vmess", Settings: settings, StreamSettings: streamSettings(p)}, nil
}
