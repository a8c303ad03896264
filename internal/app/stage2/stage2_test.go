package stage2

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakha1370/openray/internal/domain/proxy"
)

func TestProbeNonTLSSucceedsOnConnect(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	p := proxy.Parsed{Scheme: proxy.SchemeTrojan, Host: "127.0.0.1", Port: mo.Some(port)}

	prober := New(Config{ConnectTimeout: 300 * time.Millisecond, EnableTLS: true})
	assert.True(t, prober.Probe(context.Background(), p))
}

func TestProbeFailsWhenPortClosed(t *testing.T) {
	p := proxy.Parsed{Scheme: proxy.SchemeTrojan, Host: "127.0.0.1", Port: mo.Some(1)}
	prober := New(Config{ConnectTimeout: 100 * time.Millisecond})
	assert.False(t, prober.Probe(context.Background(), p))
}

func TestProbeMissingPortFails(t *testing.T) {
	p := proxy.Parsed{Scheme: proxy.SchemeTrojan, Host: "127.0.0.1"}
	prober := New(Config{})
	assert.False(t, prober.Probe(context.Background(), p))
}

func TestTLSLikelyPort(t *testing.T) {
	assert.True(t, TLSLikelyPort(443))
	assert.False(t, TLSLikelyPort(8080))
}
