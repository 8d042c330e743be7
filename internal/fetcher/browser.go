package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/Rehan-24/fpl-digest/internal/config"
	"github.com/Rehan-24/fpl-digest/internal/types"
)

// consentPatterns match cookie/consent banner buttons, case-insensitively.
// Ordered from most to least specific.
var consentPatterns = []string{
	`/allow all/i`,
	`/accept all/i`,
	`/i agree/i`,
	`/accept/i`,
	`/agree/i`,
	`/got it/i`,
	`/^ok$/i`,
}

// BrowserRenderer obtains fully rendered HTML via a headless Chromium
// controlled through Rod. The browser is launched lazily on first use.
type BrowserRenderer struct {
	cfg     *config.RenderConfig
	logger  *slog.Logger
	mu      sync.Mutex
	browser *rod.Browser
}

// NewBrowserRenderer creates the second-stage renderer.
func NewBrowserRenderer(cfg *config.RenderConfig, logger *slog.Logger) *BrowserRenderer {
	return &BrowserRenderer{
		cfg:    cfg,
		logger: logger.With("component", "browser_renderer"),
	}
}

func (br *BrowserRenderer) Name() string { return string(types.StrategyHeadless) }

// TryRender loads the page, dismisses consent banners, waits for real
// content, and returns the rendered document.
func (br *BrowserRenderer) TryRender(ctx context.Context, url string) (*types.RenderedPage, error) {
	browser, err := br.getBrowser()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrNoBrowser, err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		return nil, fmt.Errorf("stealth page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx)

	if err := br.blockHeavyAssets(page); err != nil {
		br.logger.Warn("asset blocking unavailable", "error", err)
	}

	if err := page.Timeout(br.cfg.BrowserWait).Navigate(url); err != nil {
		return nil, &types.FetchError{URL: url, Err: err, Retryable: true}
	}
	if err := page.Timeout(br.cfg.BrowserWait).WaitLoad(); err != nil {
		br.logger.Debug("page load wait timed out, continuing", "url", url)
	}

	br.clickConsent(page)
	br.waitForContent(page)

	html, err := page.HTML()
	if err != nil {
		return nil, &types.FetchError{URL: url, Err: err, Retryable: true}
	}

	br.logger.Debug("browser render complete", "url", url, "size", len(html))
	return &types.RenderedPage{
		HTML:     html,
		URL:      url,
		Strategy: types.StrategyHeadless,
	}, nil
}

// getBrowser launches and connects the shared browser on first use.
func (br *BrowserRenderer) getBrowser() (*rod.Browser, error) {
	br.mu.Lock()
	defer br.mu.Unlock()

	if br.browser != nil {
		return br.browser, nil
	}

	launchURL, err := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	br.browser = browser
	br.logger.Info("headless browser ready")
	return browser, nil
}

// blockHeavyAssets blocks stylesheets and fonts for speed. Images stay
// enabled: hero-image URLs must remain discoverable in the DOM.
func (br *BrowserRenderer) blockHeavyAssets(page *rod.Page) error {
	router := page.HijackRequests()
	err := router.Add("*", "", func(h *rod.Hijack) {
		switch h.Request.Type() {
		case proto.NetworkResourceTypeStylesheet, proto.NetworkResourceTypeFont:
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		default:
			h.ContinueRequest(&proto.FetchContinueRequest{})
		}
	})
	if err != nil {
		return err
	}
	go router.Run()
	return nil
}

// clickConsent attempts to dismiss a cookie/consent banner with a small set
// of text heuristics. Every failure is ignored: a missing banner is the
// happy path.
func (br *BrowserRenderer) clickConsent(page *rod.Page) {
	for _, pattern := range consentPatterns {
		el, err := page.Timeout(2 * time.Second).ElementR(`button, [role="button"], a`, pattern)
		if err != nil {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			continue
		}
		br.logger.Debug("consent banner dismissed", "pattern", pattern)
		time.Sleep(500 * time.Millisecond)
		return
	}
}

// waitForContent polls until the rendered text passes the length threshold
// or an <article>/<main> element appears, up to the configured wait.
func (br *BrowserRenderer) waitForContent(page *rod.Page) {
	deadline := time.Now().Add(br.cfg.BrowserWait)
	for time.Now().Before(deadline) {
		if has, _, err := page.Has("article, main"); err == nil && has {
			return
		}
		res, err := page.Eval(`() => document.body ? document.body.innerText.length : 0`)
		if err == nil && res.Value.Int() >= br.cfg.MinContentLen {
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
	br.logger.Debug("content readiness wait exhausted")
}

// Close shuts the browser down if it was launched.
func (br *BrowserRenderer) Close() error {
	br.mu.Lock()
	defer br.mu.Unlock()
	if br.browser != nil {
		err := br.browser.Close()
		br.browser = nil
		return err
	}
	return nil
}
