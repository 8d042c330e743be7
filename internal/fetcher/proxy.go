package fetcher

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Rehan-24/fpl-digest/internal/types"
)

// ProxyRenderer is the last-resort stage: it fetches the URL through a
// read-only text rendering proxy and wraps the plain text in a minimal HTML
// envelope so downstream extraction sees a document.
type ProxyRenderer struct {
	proxyURL string
	client   *Client
	logger   *slog.Logger
}

// NewProxyRenderer creates the text-proxy renderer. proxyURL is the proxy
// prefix the target URL is appended to (e.g. "https://r.jina.ai/").
func NewProxyRenderer(proxyURL string, client *Client, logger *slog.Logger) *ProxyRenderer {
	return &ProxyRenderer{
		proxyURL: proxyURL,
		client:   client,
		logger:   logger.With("component", "proxy_renderer"),
	}
}

func (p *ProxyRenderer) Name() string { return string(types.StrategyProxy) }

func (p *ProxyRenderer) TryRender(ctx context.Context, url string) (*types.RenderedPage, error) {
	proxied := strings.TrimSuffix(p.proxyURL, "/") + "/" + url

	resp, err := p.client.Do(ctx, proxied, FetchOptions{MaxRetries: -1})
	if err != nil {
		return nil, err
	}

	p.logger.Debug("proxy render complete", "url", url, "size", len(resp.Body))
	return &types.RenderedPage{
		HTML:     WrapPlainText(string(resp.Body)),
		URL:      url,
		Strategy: types.StrategyProxy,
	}, nil
}

func (p *ProxyRenderer) Close() error { return nil }

// WrapPlainText converts proxy plain text into a minimal HTML document:
// angle brackets and ampersands escaped, newlines turned into line breaks.
func WrapPlainText(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 64)
	b.WriteString("<html><body><main>")

	escaped := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	).Replace(text)
	b.WriteString(strings.ReplaceAll(escaped, "\n", "<br>"))

	b.WriteString("</main></body></html>")
	return b.String()
}
