package publish

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Rehan-24/fpl-digest/internal/config"
	"github.com/Rehan-24/fpl-digest/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestHTTPNewsSinkPublishes(t *testing.T) {
	var got newsPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	cfg := config.PublishConfig{
		NewsURL:          srv.URL,
		Timeout:          5 * time.Second,
		PlaceholderImage: "https://cdn.example.com/placeholder.jpg",
		MaxContentChars:  6000,
	}
	sink := NewHTTPNewsSink(cfg, testLogger)

	draft := &types.ArticleDraft{Title: "GW12 Review", Body: "Some body text.", Excerpt: "short"}
	if err := sink.Publish(context.Background(), draft, []string{"Premier"}); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	if got.Title != "GW12 Review" || got.Content != "Some body text." {
		t.Errorf("payload wrong: %+v", got)
	}
	if got.ImageURL != cfg.PlaceholderImage {
		t.Errorf("placeholder not applied: %q", got.ImageURL)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "Premier" {
		t.Errorf("tags wrong: %v", got.Tags)
	}
}

func TestHTTPNewsSinkTruncatesContent(t *testing.T) {
	var got newsPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
	}))
	defer srv.Close()

	cfg := config.PublishConfig{NewsURL: srv.URL, Timeout: 5 * time.Second, MaxContentChars: 100}
	sink := NewHTTPNewsSink(cfg, testLogger)

	draft := &types.ArticleDraft{Title: "Long", Body: strings.Repeat("words and more words. ", 50)}
	if err := sink.Publish(context.Background(), draft, nil); err != nil {
		t.Fatalf("publish error: %v", err)
	}
	if n := len([]rune(got.Content)); n > 100 {
		t.Errorf("content not truncated: %d runes", n)
	}
}

func TestHTTPNewsSinkRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	sink := NewHTTPNewsSink(config.PublishConfig{NewsURL: srv.URL, Timeout: 5 * time.Second}, testLogger)
	if err := sink.Publish(context.Background(), &types.ArticleDraft{Title: "x"}, nil); err == nil {
		t.Fatal("expected error on 400")
	}
}

func TestWebhookSinkChunksLongMessages(t *testing.T) {
	var posts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		var payload map[string]string
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &payload)
		if n := len([]rune(payload["content"])); n > discordMessageLimit {
			t.Errorf("message of %d runes exceeds limit", n)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewWebhookSink(config.PublishConfig{DiscordWebhook: srv.URL, Timeout: 5 * time.Second}, testLogger)
	long := strings.Repeat("price change line\n", 400)
	if err := sink.Send(context.Background(), long); err != nil {
		t.Fatalf("send error: %v", err)
	}
	if posts.Load() < 2 {
		t.Errorf("expected chunked delivery, got %d post(s)", posts.Load())
	}
}
