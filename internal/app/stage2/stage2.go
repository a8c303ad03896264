// Package stage2 implements the Port Probe: a TCP connect followed by
// an optional certificate-blind TLS handshake for TCP-native schemes.
package stage2

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"time"

	"github.com/sakha1370/openray/internal/domain/proxy"
)

// Config tunes Stage 2's timeouts and the TLS handshake toggle.
type Config struct {
	ConnectTimeout time.Duration
	ProbeTimeout   time.Duration
	EnableTLS      bool
}

// Prober performs Port Probe checks.
type Prober struct {
	cfg Config
}

// New returns a Prober.
func New(cfg Config) *Prober {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 800 * time.Millisecond
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 900 * time.Millisecond
	}
	return &Prober{cfg: cfg}
}

// Probe implements the Stage 2 contract for p, which must describe a
// TCP-native scheme with a resolved port.
func (pr *Prober) Probe(ctx context.Context, p proxy.Parsed) bool {
	port, ok := p.Port.Get()
	if !ok {
		return false
	}

	addr := net.JoinHostPort(p.Host, strconv.Itoa(port))
	dialer := net.Dialer{Timeout: pr.cfg.ConnectTimeout}
	dialCtx, cancel := context.WithTimeout(ctx, pr.cfg.ConnectTimeout)
	conn, err := dialer.DialContext(dialCtx, "tcp", addr)
	cancel()
	if err != nil {
		return false
	}
	defer conn.Close()

	tlsLikely := p.TLSHint || TLSLikelyPort(port)
	if !pr.cfg.EnableTLS || !tlsLikely {
		return true
	}

	return pr.handshake(ctx, conn, p.Host)
}

func (pr *Prober) handshake(ctx context.Context, conn net.Conn, host string) bool {
	deadline := time.Now().Add(pr.cfg.ProbeTimeout)
	if dctx, ok := ctx.Deadline(); ok && dctx.Before(deadline) {
		deadline = dctx
	}
	_ = conn.SetDeadline(deadline)

	sni := host
	if net.ParseIP(host) != nil {
		sni = ""
	}

	tlsConn := tls.Client(conn, &tls.Config{
		InsecureSkipVerify: true, //nolint:gosec // certificate and hostname verification are intentionally disabled for reachability probing
		ServerName:         sni,
	})
	return tlsConn.HandshakeContext(ctx) == nil
}

var wellKnownTLSPorts = map[int]struct{}{
	443: {}, 8443: {}, 2053: {}, 2083: {}, 2087: {}, 2096: {}, 444: {}, 10443: {},
}

// TLSLikelyPort reports whether port is a well-known TLS port.
func TLSLikelyPort(port int) bool {
	_, ok := wellKnownTLSPorts[port]
	return ok
}
