// Package crawler discovers and parses sections of structured regulatory
// manuals. Fetching is strictly sequential with a polite delay between
// requests; one bad page never aborts the crawl of the rest.
package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultUserAgent  = "lightpoint-ingest/1.0 (+https://oracleconsulting.co.uk)"
	defaultRetries    = 3
	defaultBackoff    = 2 * time.Second
	maxResponseBytes  = 5 << 20
	defaultGetTimeout = 30 * time.Second
)

// Fetcher retrieves pages with bounded retries and linear backoff. Each
// request carries its own timeout via context; there is no run-level
// cancellation beyond the caller's context.
type Fetcher struct {
	client    *http.Client
	userAgent string
	retries   int
	backoff   time.Duration
	timeout   time.Duration
}

func NewFetcher(timeout time.Duration, retries int) *Fetcher {
	if timeout <= 0 {
		timeout = defaultGetTimeout
	}
	if retries <= 0 {
		retries = defaultRetries
	}
	return &Fetcher{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		userAgent: defaultUserAgent,
		retries:   retries,
		backoff:   defaultBackoff,
		timeout:   timeout,
	}
}

// Get fetches a URL, retrying up to the attempt ceiling with backoff
// scaled linearly by attempt number.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= f.retries; attempt++ {
		body, err := f.get(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if attempt < f.retries {
			if err := sleep(ctx, time.Duration(attempt)*f.backoff); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("fetch %s after %d attempts: %w", url, f.retries, lastErr)
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// Head checks reachability without downloading the page. Used as the
// pre-flight accessibility check before a crawl starts.
func (f *Fetcher) Head(ctx context.Context, url string) error {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("head: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
