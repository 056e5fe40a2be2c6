// Package fetch provides a minimal net/http-based Fetcher satisfying
// the worker loop's response contract. The specified core treats
// fetching as an external black box (spec §1); this package only
// exists to make the module runnable end to end, and carries none of
// the core's invariants.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ucicrawl/ucicrawl/internal/types"
)

const userAgent = "ucicrawlbot/1.0 (+https://ics.uci.edu)"

// RetryConfig controls the exponential backoff applied per host.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
}

// DefaultRetryConfig allows three retries with a factor-2 backoff that
// starts from one second and is capped at 30 seconds. Each wait doubles
// the initial backoff once per retry attempt and once per consecutive
// failure recorded for the host, so the first retry after a single
// failure waits four seconds.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
	}
}

type hostBackoff struct {
	mu               sync.Mutex
	consecutiveFails int
}

// Fetcher is a polite HTTP client: one goroutine-safe retry/backoff
// tracker per host, shared across all workers.
type Fetcher struct {
	client *http.Client
	retry  RetryConfig

	hosts sync.Map // map[string]*hostBackoff
}

// New builds a Fetcher with the given per-request timeout.
func New(timeout time.Duration, retry RetryConfig) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry: retry,
	}
}

// Fetch retrieves rawURL, retrying transient failures with exponential
// backoff. It always returns a types.Response; fetch-layer failures
// are reported through Response.Error rather than a Go error, since
// the worker loop treats every outcome (success, 4xx/5xx, network
// failure) as something to hand to the pipeline or log and move on
// from (spec §7).
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) types.Response {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return types.Response{URL: rawURL, Error: fmt.Sprintf("invalid url: %v", err)}
	}
	host := parsed.Host

	var lastErr error
	var lastStatus int

	for attempt := 0; attempt <= f.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return types.Response{URL: rawURL, Error: ctx.Err().Error()}
			case <-time.After(f.backoff(host, attempt)):
			}
		}

		status, body, err := f.do(ctx, rawURL)
		if err == nil && !shouldRetry(status) {
			f.recordSuccess(host)
			return types.Response{
				Status:      status,
				URL:         rawURL,
				RawResponse: &types.RawResponse{URL: rawURL, Content: body},
			}
		}

		lastErr = err
		lastStatus = status
		f.recordFailure(host)
	}

	if lastErr != nil {
		return types.Response{URL: rawURL, Status: lastStatus, Error: lastErr.Error()}
	}
	return types.Response{URL: rawURL, Status: lastStatus, Error: fmt.Sprintf("exhausted retries with status %d", lastStatus)}
}

func (f *Fetcher) do(ctx context.Context, rawURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func shouldRetry(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (f *Fetcher) backoff(host string, attempt int) time.Duration {
	state := f.stateFor(host)
	state.mu.Lock()
	fails := state.consecutiveFails
	state.mu.Unlock()

	backoff := f.retry.InitialBackoff
	for i := 0; i < attempt+fails; i++ {
		backoff = time.Duration(float64(backoff) * f.retry.BackoffFactor)
		if backoff > f.retry.MaxBackoff {
			backoff = f.retry.MaxBackoff
			break
		}
	}
	return backoff
}

func (f *Fetcher) recordFailure(host string) {
	state := f.stateFor(host)
	state.mu.Lock()
	state.consecutiveFails++
	state.mu.Unlock()
}

func (f *Fetcher) recordSuccess(host string) {
	state := f.stateFor(host)
	state.mu.Lock()
	state.consecutiveFails = 0
	state.mu.Unlock()
}

func (f *Fetcher) stateFor(host string) *hostBackoff {
	if v, ok := f.hosts.Load(host); ok {
		return v.(*hostBackoff)
	}
	actual, _ := f.hosts.LoadOrStore(host, &hostBackoff{})
	return actual.(*hostBackoff)
}
