package fpl

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
	"github.com/Rehan-24/fpl-digest/internal/fetcher"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const bootstrapFixture = `{
  "events": [
    {"id": 1, "name": "Gameweek 1", "deadline_time": "2025-08-15T17:30:00Z", "finished": true},
    {"id": 2, "name": "Gameweek 2", "deadline_time": "2025-08-22T17:30:00Z", "is_current": true},
    {"id": 3, "name": "Gameweek 3", "deadline_time": "2025-08-29T17:30:00Z", "is_next": true},
    {"id": 4, "name": "Gameweek 4", "deadline_time": "not a date"}
  ],
  "teams": [
    {"id": 1, "name": "Arsenal", "short_name": "ARS"},
    {"id": 2, "name": "Aston Villa", "short_name": "AVL"}
  ],
  "elements": [
    {"id": 100, "web_name": "Saka", "first_name": "Bukayo", "second_name": "Saka", "team": 1, "now_cost": 102}
  ]
}`

func TestLookupsBeforeLoad(t *testing.T) {
	c := NewClient(nil, config.FPLConfig{}, testLogger)

	if _, err := c.Events(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}
	if _, err := c.NextDeadline(time.Now()); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}
}

func TestLoadAndLookups(t *testing.T) {
	c := NewClient(nil, config.FPLConfig{}, testLogger)
	if err := c.Load([]byte(bootstrapFixture)); err != nil {
		t.Fatalf("load error: %v", err)
	}

	events, err := c.Events()
	if err != nil {
		t.Fatalf("events error: %v", err)
	}
	// The unparseable deadline is dropped.
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	cur, err := c.CurrentEvent()
	if err != nil || cur.Name != "Gameweek 2" {
		t.Errorf("current event %+v, err %v", cur, err)
	}

	now := time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC)
	next, err := c.NextDeadline(now)
	if err != nil {
		t.Fatalf("next deadline error: %v", err)
	}
	if next.Name != "Gameweek 3" {
		t.Errorf("next deadline %+v", next)
	}

	if name, ok := c.TeamName(1); !ok || name != "Arsenal" {
		t.Errorf("team name %q, %v", name, ok)
	}
	if short, ok := c.TeamShortName(2); !ok || short != "AVL" {
		t.Errorf("short name %q, %v", short, ok)
	}
	if p, ok := c.Player(100); !ok || p.WebName != "Saka" || p.NowCost != 102 {
		t.Errorf("player %+v, %v", p, ok)
	}
}

func TestNextDeadlineExhausted(t *testing.T) {
	c := NewClient(nil, config.FPLConfig{}, testLogger)
	if err := c.Load([]byte(bootstrapFixture)); err != nil {
		t.Fatal(err)
	}
	if _, err := c.NextDeadline(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)); err == nil {
		t.Error("expected error after the season ends")
	}
}

func TestRefreshRetriesTransientFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(bootstrapFixture))
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.Fetcher.BaseDelay = time.Millisecond
	cfg.Fetcher.JitterMax = time.Millisecond
	cfg.Fetcher.PolitenessDelay = 0
	httpClient := fetcher.NewClient(cfg, testLogger)
	defer httpClient.Close()

	c := NewClient(httpClient, config.FPLConfig{BootstrapURL: srv.URL, Timeout: 5 * time.Second}, testLogger)
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh error: %v", err)
	}
	if hits.Load() < 2 {
		t.Errorf("expected a retried fetch, got %d hits", hits.Load())
	}
	if name, ok := c.TeamName(1); !ok || name != "Arsenal" {
		t.Errorf("team missing after retried refresh: %q, %v", name, ok)
	}
}

func TestRefreshReplacesCaches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(bootstrapFixture))
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.Fetcher.PolitenessDelay = 0
	httpClient := fetcher.NewClient(cfg, testLogger)
	defer httpClient.Close()

	c := NewClient(httpClient, config.FPLConfig{BootstrapURL: srv.URL, Timeout: 5 * time.Second}, testLogger)

	// Seed stale data first, then refresh over it.
	if err := c.Load([]byte(`{"events": [], "teams": [{"id": 9, "name": "Stale", "short_name": "STA"}], "elements": []}`)); err != nil {
		t.Fatal(err)
	}
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh error: %v", err)
	}

	if _, ok := c.TeamName(9); ok {
		t.Error("stale team survived refresh")
	}
	if name, ok := c.TeamName(1); !ok || name != "Arsenal" {
		t.Errorf("refreshed team missing: %q, %v", name, ok)
	}
}
