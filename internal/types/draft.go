package types

// RenderStrategy identifies which rendering stage produced a page.
type RenderStrategy string

const (
	StrategyPlain    RenderStrategy = "plain"
	StrategyHeadless RenderStrategy = "headless"
	StrategyProxy    RenderStrategy = "proxy"
)

// RenderedPage is the ephemeral output of one rendering attempt. It is never
// persisted; extraction consumes it immediately.
type RenderedPage struct {
	// HTML is the full document markup as obtained by the strategy.
	HTML string

	// URL is the page URL the HTML was rendered for.
	URL string

	// Strategy records which fallback stage produced the HTML.
	Strategy RenderStrategy
}

// ArticleDraft is a cleaned article ready for publication. Immutable once
// built; one draft maps to at most one published news item.
type ArticleDraft struct {
	// Title is the resolved article headline.
	Title string

	// Excerpt is a short plain-text summary, at most 600 characters.
	Excerpt string

	// Body is the article content converted to markdown.
	Body string

	// ImageURL is the hero image, or empty if none was found. The publish
	// layer supplies a placeholder for empty values.
	ImageURL string

	// SourceURL is the page the draft was extracted from.
	SourceURL string
}
