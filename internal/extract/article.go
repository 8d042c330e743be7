package extract

import (
	"fmt"
	nurl "net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/Rehan-24/fpl-digest/internal/types"
)

// excerptLimit caps the excerpt length in characters.
const excerptLimit = 600

// Article extracts a single clean article from rendered HTML.
//
// The body comes from the readability algorithm, falling back to <article>,
// <main>, then <body> when readability finds nothing usable. The result body
// is markdown with a backlink to the source appended. Fails with an
// ExtractError when no strategy yields enough text.
func (e *Extractor) Article(html, baseURL string) (*types.ArticleDraft, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &types.ExtractError{URL: baseURL, Err: fmt.Errorf("parse document: %w", err)}
	}
	doc.Find("script, style, noscript").Remove()

	cleaned, err := doc.Html()
	if err != nil {
		cleaned = html
	}

	var (
		bodyHTML   string
		title      string
		excerpt    string
		imageURL   string
		pageURL, _ = nurl.Parse(baseURL)
	)

	if pageURL != nil {
		article, rerr := readability.FromReader(strings.NewReader(cleaned), pageURL)
		if rerr == nil && len(strings.TrimSpace(article.TextContent)) >= e.cfg.ArticleMinChars {
			bodyHTML = article.Content
			title = strings.TrimSpace(article.Title)
			excerpt = cleanText(article.Excerpt)
			imageURL = strings.TrimSpace(article.Image)
		} else if rerr != nil {
			e.logger.Debug("readability failed, falling back to landmarks", "url", baseURL, "error", rerr)
		}
	}

	if bodyHTML == "" {
		bodyHTML = landmarkHTML(doc)
	}
	if strings.TrimSpace(bodyHTML) == "" {
		return nil, &types.ExtractError{URL: baseURL, Err: types.ErrBodyTooShort}
	}

	body := e.toMarkdown(bodyHTML)
	text := plainText(bodyHTML)
	if len(text) < e.cfg.ArticleMinChars {
		return nil, &types.ExtractError{URL: baseURL, Err: types.ErrBodyTooShort}
	}

	if title == "" {
		title = resolveTitle(doc)
	}
	if excerpt == "" {
		excerpt = truncate(text, excerptLimit)
	} else {
		excerpt = truncate(excerpt, excerptLimit)
	}
	if imageURL == "" {
		imageURL = resolveImage(bodyHTML, doc)
	}

	body += fmt.Sprintf("\n\n[Read the original](%s)", baseURL)

	return &types.ArticleDraft{
		Title:     title,
		Excerpt:   excerpt,
		Body:      body,
		ImageURL:  imageURL,
		SourceURL: baseURL,
	}, nil
}

// landmarkHTML returns the inner HTML of the best structural landmark:
// <article>, then <main>, then <body>.
func landmarkHTML(doc *goquery.Document) string {
	for _, sel := range []string{"article", "main", "body"} {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		if inner, err := s.Html(); err == nil && strings.TrimSpace(inner) != "" {
			return inner
		}
	}
	return ""
}

// resolveTitle walks the title ladder: og:title meta, first <h1>, <title>,
// then the literal "Review".
func resolveTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if t := cleanText(og); t != "" {
			return t
		}
	}
	if t := cleanText(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	if t := cleanText(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return "Review"
}

// resolveImage prefers the first <img> inside the extracted body, then the
// og:image meta. Empty means the publish layer supplies a placeholder.
func resolveImage(bodyHTML string, doc *goquery.Document) string {
	if frag, err := goquery.NewDocumentFromReader(strings.NewReader(bodyHTML)); err == nil {
		if src := firstAttr(frag.Find("img"), "src"); src != "" {
			return src
		}
	}
	if og, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
		return strings.TrimSpace(og)
	}
	return ""
}
