package imagesearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Browser-like agent; some image hosts reject the Go default
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Responses larger than this are rejected rather than decoded
const maxBodySize = 20 << 20

// Fetcher performs rate-limited HTTP GETs for the network sources. All
// sources share one Fetcher so the interval applies across them.
type Fetcher struct {
	HTTPClient *http.Client
	UserAgent  string
	limiter    *rate.Limiter
}

// NewFetcher creates a fetcher allowing one request per interval. An interval
// of zero disables limiting.
func NewFetcher(client *http.Client, interval time.Duration) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Fetcher{
		HTTPClient: client,
		UserAgent:  defaultUserAgent,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Get downloads url, blocking until the rate limiter allows the request
func (f *Fetcher) Get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(data) > maxBodySize {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", url, maxBodySize)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty response from %s", url)
	}
	return data, nil
}
