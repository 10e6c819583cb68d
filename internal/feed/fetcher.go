package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pders01/radar/internal/config"
	"github.com/pders01/radar/internal/radar"
)

const (
	defaultUserAgent = "radar/1.0 (+https://github.com/pders01/radar)"
	defaultTimeout   = 30 * time.Second
	maxFeedBytes     = 10 << 20
)

// Fetcher downloads feed documents. It performs a single attempt per call.
type Fetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

func NewFetcher(cfg *config.Config) *Fetcher {
	timeout := defaultTimeout
	userAgent := defaultUserAgent
	if cfg != nil {
		if cfg.Feed.HTTPTimeout > 0 {
			timeout = cfg.Feed.HTTPTimeout
		}
		if cfg.Feed.UserAgent != "" {
			userAgent = cfg.Feed.UserAgent
		}
	}

	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// Fetch returns the body of src's feed. The request is bounded by the
// configured timeout even if ctx has no deadline.
func (f *Fetcher) Fetch(ctx context.Context, src radar.Source) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/rdf+xml, application/atom+xml, application/xml, text/xml")
	req.Header.Set("Accept-Language", "ja,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}
