package ingest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/sakha1370/openray/internal/domain/proxy"
	"github.com/sakha1370/openray/internal/httpclient"
	"github.com/sakha1370/openray/internal/uriparse"
)

// MaxBodyBytes is the hard cap on a decoded subscription body.
const MaxBodyBytes = 10 << 20 // 10 MiB

// Config tunes the Ingestor's concurrency and timeouts.
type Config struct {
	FetchWorkers int
	FetchTimeout time.Duration
}

// Ingestor fetches subscription sources concurrently and extracts proxy
// URIs from each.
type Ingestor struct {
	client *http.Client
	cfg    Config
	logger *slog.Logger
}

// New returns an Ingestor. A nil logger disables debug logging.
func New(cfg Config, logger *slog.Logger) *Ingestor {
	if cfg.FetchWorkers < 1 {
		cfg.FetchWorkers = 1
	}
	if cfg.FetchWorkers > 512 {
		cfg.FetchWorkers = 512
	}
	return &Ingestor{
		client: httpclient.New(cfg.FetchTimeout, httpclient.DesktopUserAgent, logger),
		cfg:    cfg,
		logger: logger,
	}
}

// Result is one source's outcome. Err is set for logging only; a failed
// source contributes no URIs and never aborts the run.
type Result struct {
	Source Source
	URIs   []proxy.URI
	Err    error
}

// FetchAll fetches every source concurrently, bounded by
// Config.FetchWorkers, and returns one Result per source in input
// order.
func (ing *Ingestor) FetchAll(ctx context.Context, sources []Source) []Result {
	results := make([]Result, len(sources))
	if len(sources) == 0 {
		return results
	}

	sem := semaphore.NewWeighted(int64(ing.cfg.FetchWorkers))
	var wg sync.WaitGroup
	for i, src := range sources {
		i, src := i, src
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = Result{Source: src, Err: ctx.Err()}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = ing.fetchOne(ctx, src)
		}()
	}
	wg.Wait()

	return results
}

func (ing *Ingestor) fetchOne(ctx context.Context, src Source) Result {
	fetchCtx := ctx
	if ing.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, ing.cfg.FetchTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, src.URL, nil)
	if err != nil {
		return Result{Source: src, Err: err}
	}

	resp, err := ing.client.Do(req)
	if err != nil {
		return Result{Source: src, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{Source: src, Err: &statusError{code: resp.StatusCode}}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return Result{Source: src, Err: err}
	}
	if len(body) > MaxBodyBytes {
		return Result{Source: src, Err: errBodyTooLarge}
	}

	text := decodeBody(body, src.Base64)
	uris := uriparse.Extract(text)
	return Result{Source: src, URIs: uris}
}

type statusError struct{ code int }

func (e *statusError) Error() string { return "unexpected status code" }

var errBodyTooLarge = &statusError{code: 0}
