package stage1

import (
	"context"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// FallbackPorts is the fixed list of likely-open ports tried when ICMP
// is unavailable or fails.
var FallbackPorts = []int{80, 443, 8080, 8443, 2052, 2082, 2086, 2095}

var ciEnvVars = []string{
	"CI", "GITHUB_ACTIONS", "GITLAB_CI", "BUILD_ID", "BUILD_NUMBER", "TF_BUILD",
	"CIRCLECI", "TRAVIS", "APPVEYOR", "JENKINS_URL", "TEAMCITY_VERSION",
	"BITBUCKET_BUILD_NUMBER", "DRONE", "WOODPECKER", "BUILDKITE",
}

// InCI reports whether the process appears to be running under a CI
// system, in which case ICMP is skipped since CI runners typically lack
// raw-socket capability.
func InCI() bool {
	for _, k := range ciEnvVars {
		v := strings.TrimSpace(os.Getenv(k))
		if v == "" {
			continue
		}
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			return true
		}
		if k != "CI" {
			return true
		}
	}
	return false
}

// Config tunes Stage 1's timeouts.
type Config struct {
	PingTimeout    time.Duration
	ConnectTimeout time.Duration
	ForceCI        bool
}

// Prober performs Host Reachability checks.
type Prober struct {
	cfg Config
}

// New returns a Prober.
func New(cfg Config) *Prober {
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = 500 * time.Millisecond
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 800 * time.Millisecond
	}
	return &Prober{cfg: cfg}
}

// Reachable implements the Stage 1 contract: ICMP echo (unless in CI),
// falling back to a TCP connect sweep over FallbackPorts.
func (p *Prober) Reachable(ctx context.Context, host string) bool {
	if !p.cfg.ForceCI && !InCI() {
		if icmpEcho(ctx, host, p.cfg.PingTimeout) {
			return true
		}
	}
	return p.tcpFallback(ctx, host)
}

func (p *Prober) tcpFallback(ctx context.Context, host string) bool {
	dialer := net.Dialer{Timeout: p.cfg.ConnectTimeout}
	for _, port := range FallbackPorts {
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		dialCtx, cancel := context.WithTimeout(ctx, p.cfg.ConnectTimeout)
		conn, err := dialer.DialContext(dialCtx, "tcp", addr)
		cancel()
		if err == nil {
			conn.Close()
			return true
		}
	}
	return false
}
