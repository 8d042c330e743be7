package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Rehan-24/fpl-digest/internal/config"
	"github.com/Rehan-24/fpl-digest/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// fastConfig keeps retry delays short enough for tests.
func fastConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Fetcher.BaseDelay = time.Millisecond
	cfg.Fetcher.JitterMax = time.Millisecond
	cfg.Fetcher.PolitenessDelay = 0
	cfg.Fetcher.Timeout = 5 * time.Second
	return cfg
}

func TestDoRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c := NewClient(fastConfig(), testLogger)
	defer c.Close()

	resp, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch error: %v", err)
	}
	if string(resp.Body) != "hello" {
		t.Errorf("unexpected body %q", resp.Body)
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestDoFailsFastOnClientError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(fastConfig(), testLogger)
	defer c.Close()

	_, err := c.Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error")
	}
	var fe *types.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %T", err)
	}
	if fe.Retryable {
		t.Error("404 must not be retryable")
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("expected 1 attempt, got %d", got)
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := fastConfig()
	cfg.Fetcher.MaxRetries = 2
	c := NewClient(cfg, testLogger)
	defer c.Close()

	_, err := c.Get(context.Background(), srv.URL)
	if !errors.Is(err, types.ErrMaxRetries) {
		t.Fatalf("expected ErrMaxRetries, got %v", err)
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("expected initial attempt + 2 retries, got %d", got)
	}
}

func TestDoWarmupReplaysCookies(t *testing.T) {
	var articleHits atomic.Int32
	var sawCookie atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc123"})
	})
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		if articleHits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if c, err := r.Cookie("session"); err == nil && c.Value == "abc123" {
			sawCookie.Store(true)
		}
		w.Write([]byte("content"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(fastConfig(), testLogger)
	defer c.Close()

	resp, err := c.Do(context.Background(), srv.URL+"/article", FetchOptions{Warmup: true, MaxRetries: -1})
	if err != nil {
		t.Fatalf("fetch error: %v", err)
	}
	if string(resp.Body) != "content" {
		t.Errorf("unexpected body %q", resp.Body)
	}
	if !sawCookie.Load() {
		t.Error("retry did not replay the warmed-up cookie")
	}
}

func TestBackoffDelayBounds(t *testing.T) {
	cfg := config.DefaultConfig()
	c := NewClient(cfg, testLogger)
	defer c.Close()

	for attempt := 1; attempt <= 3; attempt++ {
		base := cfg.Fetcher.BaseDelay * (1 << (attempt - 1))
		for i := 0; i < 20; i++ {
			d := c.backoffDelay(attempt, nil)
			if d < base || d > base+cfg.Fetcher.JitterMax {
				t.Fatalf("attempt %d: delay %s outside [%s, %s]",
					attempt, d, base, base+cfg.Fetcher.JitterMax)
			}
		}
	}
}

func TestBackoffDelayHonorsRetryAfter(t *testing.T) {
	c := NewClient(config.DefaultConfig(), testLogger)
	defer c.Close()

	lastErr := &types.FetchError{RetryAfter: 30 * time.Second, Retryable: true}
	if d := c.backoffDelay(1, lastErr); d < 30*time.Second {
		t.Errorf("delay %s below server's Retry-After", d)
	}
}

func TestRetryableStatus(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		if !retryableStatus(code) {
			t.Errorf("%d should be retryable", code)
		}
	}
	for _, code := range []int{400, 401, 403, 404, 410, 501} {
		if retryableStatus(code) {
			t.Errorf("%d should not be retryable", code)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d := parseRetryAfter("7"); d != 7*time.Second {
		t.Errorf("seconds form: got %s", d)
	}
	if d := parseRetryAfter("600"); d != 120*time.Second {
		t.Errorf("cap: got %s", d)
	}
	if d := parseRetryAfter(""); d != 5*time.Second {
		t.Errorf("default: got %s", d)
	}
	future := time.Now().Add(30 * time.Second).UTC().Format(http.TimeFormat)
	if d := parseRetryAfter(future); d < 25*time.Second || d > 31*time.Second {
		t.Errorf("http-date form: got %s", d)
	}
}

func TestOriginOf(t *testing.T) {
	if got := originOf("https://example.com/some/deep/page?q=1"); got != "https://example.com/" {
		t.Errorf("got %q", got)
	}
	if got := originOf("not a url"); got != "" {
		t.Errorf("expected empty for junk, got %q", got)
	}
}
