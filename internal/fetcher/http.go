package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	neturl "net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/time/rate"

	"github.com/Rehan-24/fpl-digest/internal/config"
	"github.com/Rehan-24/fpl-digest/internal/types"
)

// Response is the result of one successful fetch.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	FinalURL   string
	Duration   time.Duration
}

// FetchOptions tune a single Do call.
type FetchOptions struct {
	// Headers are merged over the default browser-like header set.
	Headers http.Header

	// Timeout overrides the configured per-request timeout.
	Timeout time.Duration

	// Warmup enables the cookie warm-up: on the first retryable failure one
	// best-effort request to the origin harvests Set-Cookie values that are
	// replayed on every subsequent attempt of this call.
	Warmup bool

	// MaxRetries overrides the configured retry budget (-1 = use config).
	MaxRetries int
}

// Client is a retrying HTTP client with exponential backoff, Retry-After
// awareness, and keep-alive connection reuse across calls.
type Client struct {
	client  *http.Client
	cfg     *config.FetcherConfig
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a retrying HTTP client.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        cfg.Fetcher.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Fetcher.MaxIdleConns / 2,
		IdleConnTimeout:     cfg.Fetcher.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true, // We handle decompression ourselves (including brotli)
	}

	var limiter *rate.Limiter
	if cfg.Fetcher.PolitenessDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.Fetcher.PolitenessDelay), 1)
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
		},
		cfg:     &cfg.Fetcher,
		limiter: limiter,
		logger:  logger.With("component", "http_client"),
	}
}

// Get fetches a URL with default options.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, url, FetchOptions{MaxRetries: -1})
}

// Do fetches a URL, retrying transient failures with exponential backoff.
// Retryable: HTTP 429/500/502/503/504 and connection-level errors. The delay
// before attempt k is baseDelay*2^(k-1) plus jitter, raised to any
// server-suggested Retry-After. Non-retryable 4xx fails immediately.
func (c *Client) Do(ctx context.Context, url string, opts FetchOptions) (*Response, error) {
	maxRetries := c.cfg.MaxRetries
	if opts.MaxRetries >= 0 {
		maxRetries = opts.MaxRetries
	}

	var warmCookie string
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoffDelay(attempt, lastErr)
			c.logger.Debug("retrying fetch",
				"url", url,
				"attempt", attempt,
				"delay", delay,
			)
			select {
			case <-ctx.Done():
				return nil, &types.FetchError{URL: url, Err: ctx.Err(), Retryable: false}
			case <-time.After(delay):
			}
		}

		resp, err := c.doOnce(ctx, url, opts, warmCookie)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var fe *types.FetchError
		if !errors.As(err, &fe) || !fe.Retryable {
			return nil, err
		}

		// First retryable failure: harvest origin cookies once and replay
		// them on the remaining attempts of this call.
		if opts.Warmup && warmCookie == "" {
			warmCookie = c.warmup(ctx, url)
		}
	}

	return nil, fmt.Errorf("%w for %s: %v", types.ErrMaxRetries, url, lastErr)
}

// doOnce performs a single attempt.
func (c *Client) doOnce(ctx context.Context, url string, opts FetchOptions, cookie string) (*Response, error) {
	timeout := c.cfg.Timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(reqCtx); err != nil {
			return nil, &types.FetchError{URL: url, Err: err, Retryable: false}
		}
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &types.FetchError{URL: url, Err: err, Retryable: false}
	}

	httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	httpReq.Header.Set("Accept-Encoding", "gzip, deflate, br")
	httpReq.Header.Set("Connection", "keep-alive")

	for key, values := range opts.Headers {
		for _, v := range values {
			httpReq.Header.Set(key, v)
		}
	}
	if cookie != "" {
		httpReq.Header.Set("Cookie", cookie)
	}

	start := time.Now()
	httpResp, err := c.client.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		return nil, &types.FetchError{
			URL:       url,
			Err:       err,
			Retryable: isRetryableError(err),
		}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(httpResp.Header.Get("Retry-After"))
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, &types.FetchError{
			URL:        url,
			StatusCode: httpResp.StatusCode,
			Err:        fmt.Errorf("HTTP 429: rate limited (retry after %s): %s", retryAfter, strings.TrimSpace(string(body))),
			Retryable:  true,
			RetryAfter: retryAfter,
		}
	}

	if httpResp.StatusCode >= 500 {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 1024))
		return nil, &types.FetchError{
			URL:        url,
			StatusCode: httpResp.StatusCode,
			Err:        fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, string(body)),
			Retryable:  retryableStatus(httpResp.StatusCode),
		}
	}

	if httpResp.StatusCode >= 400 {
		return nil, &types.FetchError{
			URL:        url,
			StatusCode: httpResp.StatusCode,
			Err:        fmt.Errorf("HTTP %d", httpResp.StatusCode),
			Retryable:  false,
		}
	}

	var reader io.Reader = httpResp.Body
	if c.cfg.MaxBodySize > 0 {
		reader = io.LimitReader(reader, c.cfg.MaxBodySize)
	}

	reader, err = decompressReader(httpResp, reader)
	if err != nil {
		return nil, &types.FetchError{URL: url, Err: err, Retryable: false}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &types.FetchError{URL: url, Err: err, Retryable: true}
	}

	c.logger.Debug("fetch complete",
		"url", url,
		"status", httpResp.StatusCode,
		"size", len(body),
		"duration", duration,
	)

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
		FinalURL:   httpResp.Request.URL.String(),
		Duration:   duration,
	}, nil
}

// backoffDelay computes the pre-attempt delay: exponential from the base,
// plus jitter, never below the server's Retry-After suggestion.
func (c *Client) backoffDelay(attempt int, lastErr error) time.Duration {
	delay := c.cfg.BaseDelay * (1 << (attempt - 1))
	if c.cfg.JitterMax > 0 {
		delay += time.Duration(rand.Int63n(int64(c.cfg.JitterMax)))
	}

	var fe *types.FetchError
	if errors.As(lastErr, &fe) && fe.RetryAfter > delay {
		delay = fe.RetryAfter
	}
	return delay
}

// warmup issues one best-effort request to the origin site and folds any
// Set-Cookie values into a Cookie header. Cookies are scoped to this call
// only, never persisted.
func (c *Client) warmup(ctx context.Context, rawURL string) string {
	origin := originOf(rawURL)
	if origin == "" {
		return ""
	}

	warmCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(warmCtx, http.MethodGet, origin, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("warmup request failed", "origin", origin, "error", err)
		return ""
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	var pairs []string
	for _, sc := range resp.Header.Values("Set-Cookie") {
		if nv, _, found := strings.Cut(sc, ";"); found || nv != "" {
			pairs = append(pairs, strings.TrimSpace(nv))
		}
	}
	if len(pairs) == 0 {
		return ""
	}

	c.logger.Debug("warmup cookies harvested", "origin", origin, "count", len(pairs))
	return strings.Join(pairs, "; ")
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// originOf reduces a URL to its scheme://host root.
func originOf(rawURL string) string {
	u, err := neturl.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/"
}

// retryableStatus reports whether an HTTP status warrants a retry.
func retryableStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}

// isRetryableError checks if a network error warrants a retry.
// Covers timeouts, connection resets, unexpected EOF, and connection refused.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	// Context cancellation is NOT retryable
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	if netErr, ok := err.(net.Error); ok {
		if netErr.Timeout() {
			return true
		}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNRESET) ||
			errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return true
		}
	}
	return false
}

// parseRetryAfter parses the Retry-After header value.
// Supports both integer seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second // default back-off
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil {
		if secs > 120 {
			secs = 120 // cap at 2 minutes
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		d := time.Until(t)
		if d < 0 {
			return time.Second
		}
		if d > 2*time.Minute {
			return 2 * time.Minute
		}
		return d
	}
	return 5 * time.Second
}
