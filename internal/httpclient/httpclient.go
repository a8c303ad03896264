// Package httpclient provides the shared HTTP transport used by the
// Ingestor and the Geo-Tagger's ip-api.com client, logging requests at
// debug level the way the rest of the tree logs through log/slog.
package httpclient

import (
	"log/slog"
	"net"
	"net/http"
	"time"
)

// DesktopUserAgent is the fixed desktop-browser string the Ingestor
// sends, so subscription hosts that block obvious scrapers still
// serve the body.
const DesktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// New builds an http.Client tuned for short-lived, high-fanout fetches:
// a bounded per-host idle pool and a fixed User-Agent, with optional
// debug logging of each round trip.
func New(requestTimeout time.Duration, userAgent string, logger *slog.Logger) *http.Client {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          200,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Transport: &roundTripper{RoundTripper: base, userAgent: userAgent, logger: logger},
		Timeout:   requestTimeout,
	}
}

type roundTripper struct {
	http.RoundTripper
	userAgent string
	logger    *slog.Logger
}

func (r *roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" && r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	if r.logger != nil {
		r.logger.Debug("http request", "method", req.Method, "url", req.URL.String())
	}

	start := time.Now()
	resp, err := r.RoundTripper.RoundTrip(req)
	duration := time.Since(start)

	if r.logger != nil {
		if err != nil {
			r.logger.Debug("http error", "method", req.Method, "url", req.URL.String(), "error", err, "duration", duration)
		} else {
			r.logger.Debug("http response", "method", req.Method, "url", req.URL.String(), "status", resp.StatusCode, "duration", duration)
		}
	}

	return resp, err
}
