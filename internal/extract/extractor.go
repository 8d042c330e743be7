package extract

import (
	"log/slog"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/Rehan-24/fpl-digest/internal/config"
)

// Extractor turns rendered HTML into publishable article drafts.
type Extractor struct {
	cfg    *config.ExtractConfig
	conv   *md.Converter
	logger *slog.Logger
}

// New creates an Extractor.
func New(cfg *config.ExtractConfig, logger *slog.Logger) *Extractor {
	conv := md.NewConverter("", true, nil)
	// Drop scripts and styles rather than rendering their text.
	conv.Remove("script", "style", "noscript", "iframe")

	return &Extractor{
		cfg:    cfg,
		conv:   conv,
		logger: logger.With("component", "extractor"),
	}
}

// toMarkdown converts an HTML fragment to markdown, keeping headings, lists,
// emphasis, and links.
func (e *Extractor) toMarkdown(html string) string {
	out, err := e.conv.ConvertString(html)
	if err != nil {
		e.logger.Debug("markdown conversion failed, using stripped text", "error", err)
		return plainText(html)
	}
	return strings.TrimSpace(out)
}

// plainText strips all markup from an HTML fragment.
func plainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	doc.Find("script, style, noscript").Remove()
	return cleanText(doc.Text())
}

// cleanText normalizes whitespace, nbsp, and zero-width characters.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.ReplaceAll(s, "\u200b", " ")
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most limit runes, appending an ellipsis when
// something was dropped.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}

// firstAttr returns the first non-empty attribute value among the matches.
func firstAttr(sel *goquery.Selection, attr string) string {
	var out string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
			out = strings.TrimSpace(v)
			return false
		}
		return true
	})
	return out
}
