package stage3

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/samber/mo"
	"golang.org/x/sync/semaphore"

	"github.com/sakha1370/openray/internal/domain/proxy"
)

// generate204Endpoints mirrors the small set of connectivity-check
// endpoints browsers and OSes use.
var generate204Endpoints = []string{
	"http://www.gstatic.com/generate_204",
	"http://cp.cloudflare.com/generate_204",
	"http://connectivitycheck.gstatic.com/generate_204",
}

// Config tunes Stage 3's concurrency, timeout, and core binary path.
type Config struct {
	CorePath string
	TempDir  string
	Timeout  time.Duration
	Workers  int
	MaxRun   int
}

// Validator runs the Core Validator.
type Validator struct {
	cfg Config
	sem *semaphore.Weighted
}

// New returns a Validator. Workers defaults to 1 when unset.
func New(cfg Config) *Validator {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	return &Validator{cfg: cfg, sem: semaphore.NewWeighted(int64(cfg.Workers))}
}

// Available reports whether a core binary was discovered; when false,
// every Validate call short-circuits to mo.None[bool]() without
// spawning anything.
func (v *Validator) Available() bool { return v.cfg.CorePath != "" }

// Validate implements the Stage 3 contract: null when the core is
// unavailable or the scheme is unsupported, true/false otherwise.
func (v *Validator) Validate(ctx context.Context, p proxy.Parsed) mo.Option[bool] {
	if !v.Available() {
		return mo.None[bool]()
	}

	if err := v.sem.Acquire(ctx, 1); err != nil {
		return mo.None[bool]()
	}
	defer v.sem.Release(1)

	port, err := freePort()
	if err != nil {
		return mo.None[bool]()
	}

	configJSON, err := RenderConfig(p, port)
	if err != nil {
		return mo.None[bool]()
	}

	runCtx, cancel := context.WithTimeout(ctx, v.cfg.Timeout+2*time.Second)
	defer cancel()

	proc, err := startCore(runCtx, v.cfg.CorePath, v.cfg.TempDir, configJSON)
	if err != nil {
		return mo.Some(false)
	}
	defer proc.Close()

	time.Sleep(250 * time.Millisecond)

	ok := v.probeThroughProxy(ctx, port)
	return mo.Some(ok)
}

func (v *Validator) probeThroughProxy(ctx context.Context, port int) bool {
	proxyURL, err := url.Parse("http://127.0.0.1:" + strconv.Itoa(port))
	if err != nil {
		return false
	}
	client := &http.Client{
		Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
		Timeout:   v.cfg.Timeout,
	}

	deadline := time.Now().Add(v.cfg.Timeout)
	for _, endpoint := range generate204Endpoints {
		if time.Now().After(deadline) {
			break
		}
		reqCtx, cancel := context.WithDeadline(ctx, deadline)
		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
		if err != nil {
			cancel()
			continue
		}
		resp, err := client.Do(req)
		cancel()
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
			return true
		}
	}
	return false
}
