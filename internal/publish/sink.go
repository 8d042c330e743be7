package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Rehan-24/fpl-digest/internal/config"
	"github.com/Rehan-24/fpl-digest/internal/types"
)

// NewsSink receives finished article drafts.
type NewsSink interface {
	Publish(ctx context.Context, draft *types.ArticleDraft, tags []string) error
}

// DiscordSink receives short notification texts.
type DiscordSink interface {
	Send(ctx context.Context, content string) error
}

// discordMessageLimit is Discord's hard cap per message.
const discordMessageLimit = 2000

// HTTPNewsSink posts drafts as JSON to the backend news endpoint.
type HTTPNewsSink struct {
	client *http.Client
	cfg    config.PublishConfig
	logger *slog.Logger
}

// NewHTTPNewsSink builds the backend sink.
func NewHTTPNewsSink(cfg config.PublishConfig, logger *slog.Logger) *HTTPNewsSink {
	return &HTTPNewsSink{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: logger.With("component", "news-sink"),
	}
}

type newsPayload struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	Excerpt  string   `json:"excerpt,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
}

func (s *HTTPNewsSink) Publish(ctx context.Context, draft *types.ArticleDraft, tags []string) error {
	image := draft.ImageURL
	if image == "" {
		image = s.cfg.PlaceholderImage
	}
	payload := newsPayload{
		Title:    draft.Title,
		Content:  Sanitize(draft.Body, s.cfg.MaxContentChars),
		Tags:     tags,
		Excerpt:  draft.Excerpt,
		ImageURL: image,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode news payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.NewsURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build news request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post news: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("news endpoint returned %d", resp.StatusCode)
	}
	s.logger.Info("draft published",
		"title", draft.Title, "tags", tags, "duration", time.Since(start))
	return nil
}

// WebhookSink delivers texts to a Discord webhook, splitting messages that
// exceed Discord's per-message limit.
type WebhookSink struct {
	client *http.Client
	url    string
	logger *slog.Logger
}

// NewWebhookSink builds a Discord webhook sink.
func NewWebhookSink(cfg config.PublishConfig, logger *slog.Logger) *WebhookSink {
	return &WebhookSink{
		client: &http.Client{Timeout: cfg.Timeout},
		url:    cfg.DiscordWebhook,
		logger: logger.With("component", "discord-sink"),
	}
}

func (s *WebhookSink) Send(ctx context.Context, content string) error {
	for _, chunk := range splitMessage(content, discordMessageLimit) {
		if err := s.post(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (s *WebhookSink) post(ctx context.Context, content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

// splitMessage breaks content on line boundaries where possible so no chunk
// exceeds limit runes.
func splitMessage(content string, limit int) []string {
	runes := []rune(content)
	if len(runes) <= limit {
		return []string{content}
	}
	var chunks []string
	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i > limit/2; i-- {
			if runes[i] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
		if len(runes) > 0 && runes[0] == '\n' {
			runes = runes[1:]
		}
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
