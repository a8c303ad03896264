package stage3

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakha1370/openray/internal/domain/proxy"
)

func TestDiscoverCoreFindsLocalCandidate(t *testing.T) {
	dir := t.TempDir()
	binPath := filepath.Join(dir, "bin", "xray")
	require.NoError(t, writeExecutable(binPath))

	got := DiscoverCore("", dir)
	assert.Equal(t, binPath, got)
}

func TestDiscoverCoreReturnsEmptyWhenMissing(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, DiscoverCore("", dir))
}

func TestRenderConfigVLESS(t *testing.T) {
	p := proxy.Parsed{
		Scheme: proxy.SchemeVLESS,
		Host:   "1.2.3.4",
		Port:   mo.Some(443),
		Raw:    proxy.URI("vless://uuid-here@1.2.3.4:443?type=tcp&security=tls"),
	}
	out, err := RenderConfig(p, 18080)
	require.NoError(t, err)

	var cfg coreConfig
	require.NoError(t, json.Unmarshal(out, &cfg))
	require.Len(t, cfg.Outbounds, 1)
	assert.Equal(t, "vless", cfg.Outbounds[0].Protocol)
	require.Len(t, cfg.Inbounds, 1)
	assert.Equal(t, 18080, cfg.Inbounds[0].Port)
}

func TestRenderConfigUnsupportedScheme(t *testing.T) {
	p := proxy.Parsed{Scheme: proxy.SchemeHysteria2, Port: mo.Some(443)}
	_, err := RenderConfig(p, 18080)
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

func writeExecutable(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755)
}
