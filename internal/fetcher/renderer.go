package fetcher

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Rehan-24/fpl-digest/internal/config"
	"github.com/Rehan-24/fpl-digest/internal/types"
)

// Renderer is one strategy for obtaining HTML for a URL. Strategies are
// independently unit-testable and iterated in order by the RenderChain.
type Renderer interface {
	// Name returns the strategy identifier.
	Name() string

	// TryRender obtains HTML for the URL. A nil error does not imply the
	// content is usable: the chain applies its quality predicate on top.
	TryRender(ctx context.Context, url string) (*types.RenderedPage, error)

	// Close releases any resources held by the renderer.
	Close() error
}

// RenderChain iterates an ordered list of renderers until one produces
// content passing the quality predicate.
type RenderChain struct {
	strategies []Renderer
	minLen     int
	logger     *slog.Logger
}

// NewRenderChain assembles the chain from configuration: plain fetch, then
// headless browser (if enabled), then text proxy (if configured).
func NewRenderChain(cfg *config.Config, client *Client, logger *slog.Logger) *RenderChain {
	strategies := []Renderer{NewPlainRenderer(client, logger)}
	if cfg.Render.BrowserEnabled {
		strategies = append(strategies, NewBrowserRenderer(&cfg.Render, logger))
	}
	if cfg.Render.ProxyURL != "" {
		strategies = append(strategies, NewProxyRenderer(cfg.Render.ProxyURL, client, logger))
	}
	return &RenderChain{
		strategies: strategies,
		minLen:     cfg.Render.MinContentLen,
		logger:     logger.With("component", "render_chain"),
	}
}

// NewRenderChainFrom builds a chain over explicit strategies, for tests and
// callers with custom stacks.
func NewRenderChainFrom(minLen int, logger *slog.Logger, strategies ...Renderer) *RenderChain {
	return &RenderChain{
		strategies: strategies,
		minLen:     minLen,
		logger:     logger.With("component", "render_chain"),
	}
}

// Render walks the strategies in order. A stage that errors or yields
// insufficient content falls through to the next; only exhausting every
// stage is fatal.
func (rc *RenderChain) Render(ctx context.Context, url string) (*types.RenderedPage, error) {
	var lastErr error

	for _, s := range rc.strategies {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		page, err := s.TryRender(ctx, url)
		if err != nil {
			rc.logger.Warn("render strategy failed",
				"strategy", s.Name(),
				"url", url,
				"error", err,
			)
			lastErr = err
			continue
		}

		if !Sufficient(page.HTML, rc.minLen) {
			marker := DetectChallenge(page.HTML)
			rc.logger.Debug("render output insufficient",
				"strategy", s.Name(),
				"url", url,
				"size", len(page.HTML),
				"challenge", marker,
			)
			if marker != "" {
				lastErr = &types.ChallengeError{URL: url, Marker: marker}
			} else {
				lastErr = errors.New("insufficient content")
			}
			continue
		}

		rc.logger.Debug("rendered", "strategy", s.Name(), "url", url, "size", len(page.HTML))
		return page, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no strategies configured")
	}
	return nil, &types.FetchError{URL: url, Err: errors.Join(types.ErrAllStrategiesFailed, lastErr)}
}

// Close releases all strategy resources.
func (rc *RenderChain) Close() error {
	var errs []error
	for _, s := range rc.strategies {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PlainRenderer fetches a URL with browser-like headers and no rendering.
type PlainRenderer struct {
	client *Client
	logger *slog.Logger
}

// NewPlainRenderer creates the first-stage renderer.
func NewPlainRenderer(client *Client, logger *slog.Logger) *PlainRenderer {
	return &PlainRenderer{
		client: client,
		logger: logger.With("component", "plain_renderer"),
	}
}

func (p *PlainRenderer) Name() string { return string(types.StrategyPlain) }

func (p *PlainRenderer) TryRender(ctx context.Context, url string) (*types.RenderedPage, error) {
	resp, err := p.client.Do(ctx, url, FetchOptions{Warmup: true, MaxRetries: -1})
	if err != nil {
		return nil, err
	}
	return &types.RenderedPage{
		HTML:     string(resp.Body),
		URL:      url,
		Strategy: types.StrategyPlain,
	}, nil
}

func (p *PlainRenderer) Close() error { return nil }
