package stage1

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPingArgsLinuxIPv4(t *testing.T) {
	binary, args := pingArgs("example.com", false, 500*time.Millisecond)
	assert.NotEmpty(t, binary)
	assert.Contains(t, args, "example.com")
}

func TestTCPFallbackSucceedsOnOpenPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	p := New(Config{ConnectTimeout: 300 * time.Millisecond})
	FallbackPorts = []int{port}
	defer func() { FallbackPorts = []int{80, 443, 8080, 8443, 2052, 2082, 2086, 2095} }()

	assert.True(t, p.tcpFallback(context.Background(), "127.0.0.1"))
}

func TestTCPFallbackFailsWhenNothingListening(t *testing.T) {
	p := New(Config{ConnectTimeout: 100 * time.Millisecond})
	FallbackPorts = []int{1}
	defer func() { FallbackPorts = []int{80, 443, 8080, 8443, 2052, 2082, 2086, 2095} }()

	assert.False(t, p.tcpFallback(context.Background(), "127.0.0.1"))
}
