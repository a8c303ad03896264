package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakha1370/openray/internal/httpclient"
)

const (
	singleEndpoint = "http://ip-api.com/json/%s?fields=countryCode"
	batchEndpoint  = "http://ip-api.com/batch"
)

// IPAPIClient is a thin client for the public ip-api.com geolocation
// service, used as the fallback when no local MMDB hit exists.
type IPAPIClient struct {
	httpClient *http.Client
}

// NewIPAPIClient returns a client with the given overall per-request
// timeout. A nil logger disables request/response debug logging.
func NewIPAPIClient(timeout time.Duration, logger *slog.Logger) *IPAPIClient {
	return &IPAPIClient{httpClient: httpclient.New(timeout, httpclient.DesktopUserAgent, logger)}
}

type singleResponse struct {
	CountryCode string `json:"countryCode"`
}

// Lookup queries the single-IP endpoint.
func (c *IPAPIClient) Lookup(ctx context.Context, ip string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(singleEndpoint, ip), nil)
	if err != nil {
		return "", false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false
	}
	var body singleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", false
	}
	if body.CountryCode == "" {
		return "", false
	}
	return body.CountryCode, true
}

type batchQuery struct {
	Query string `json:"query"`
}

type batchResult struct {
	CountryCode string `json:"countryCode"`
}

// BatchLookup queries the batch endpoint for multiple IPs in one
// request, returning a map from IP to country code for successful
// entries only.
func (c *IPAPIClient) BatchLookup(ctx context.Context, ips []string) map[string]string {
	out := make(map[string]string, len(ips))
	if len(ips) == 0 {
		return out
	}

	queries := make([]batchQuery, len(ips))
	for i, ip := range ips {
		queries[i] = batchQuery{Query: ip}
	}
	payload, err := json.Marshal(queries)
	if err != nil {
		return out
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, batchEndpoint, bytes.NewReader(payload))
	if err != nil {
		return out
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return out
	}

	var results []batchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return out
	}
	for i, r := range results {
		if i >= len(ips) || r.CountryCode == "" {
			continue
		}
		out[ips[i]] = r.CountryCode
	}
	return out
}
