package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/Rehan-24/fpl-digest/internal/types"
)

// boilerplateTitles are navigation/boilerplate headings that must never
// become sections of their own.
var boilerplateTitles = map[string]struct{}{
	"MINI LEAGUE NEWS ROUNDUP":    {},
	"PREMATCH EDITION":            {},
	"POSTMATCH EDITION":           {},
	"FANS, KITS AND STADIUMS":     {},
	"FOLLOW FOR UPDATES":          {},
	"NOT A REAL NEWSPAPER":        {},
	"FPL MUNDO SUPPORTER LEAGUES": {},
	"LETTERS FROM READERS":        {},
	"DISCLAIMER":                  {},
	"OTHER TERMS AND PRIVACY":     {},
	"PRIVACY POLICY":              {},
	"TERMS":                       {},
	"COOKIE POLICY":               {},
	"WELCOME TO FPLMUNDO!":        {},
}

// homepageMarker flags content that is the site's own masthead rather than a
// story.
var homepageMarker = regexp.MustCompile(`(?i)the original fpl mini-league newspaper`)

// section is an intermediate split result before draft conversion.
type section struct {
	title string
	html  string
	image string
}

// Sections splits a multi-review page into separate article drafts.
//
// Strategies, first satisfying wins: two or more <article> elements each
// become a section; otherwise the main content region is split at h2/h3
// boundaries; otherwise the whole page is one section when long enough.
// Sections below the minimum length are dropped and the result is truncated
// to the configured maximum.
func (e *Extractor) Sections(htmlSrc, pageURL string) ([]*types.ArticleDraft, error) {
	return e.split(htmlSrc, pageURL, e.cfg.SectionMinChars, false)
}

// LeagueSections splits a league hub page. Hub pages carry short card
// blurbs rather than full articles, so card elements are harvested too and
// the card minimum length applies instead of the article-section minimum.
func (e *Extractor) LeagueSections(htmlSrc, pageURL string) ([]*types.ArticleDraft, error) {
	return e.split(htmlSrc, pageURL, e.cfg.CardMinChars, true)
}

func (e *Extractor) split(htmlSrc, pageURL string, minChars int, cards bool) ([]*types.ArticleDraft, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlSrc))
	if err != nil {
		return nil, &types.ExtractError{URL: pageURL, Err: err}
	}
	doc.Find("script, style, noscript").Remove()

	var sections []section

	if articles := doc.Find("article"); articles.Length() >= 2 {
		sections = articleSections(articles)
	} else if cs := cardSections(doc); cards && len(cs) >= 2 {
		sections = cs
	} else {
		region := doc.Find("main").First()
		if region.Length() == 0 {
			region = doc.Find("body").First()
		}
		if region.Length() > 0 {
			sections = headingSections(region)
			// A section without a local image inherits the first image found
			// anywhere in the main region.
			if fallback := firstAttr(region.Find("img"), "src"); fallback != "" {
				for i := range sections {
					if sections[i].image == "" {
						sections[i].image = fallback
					}
				}
			}
		}
	}

	drafts := e.buildDrafts(sections, pageURL, minChars)

	// Whole-page fallback when splitting produced nothing usable.
	if len(drafts) == 0 {
		if whole := landmarkHTML(doc); len(plainText(whole)) >= e.cfg.WholePageMin {
			drafts = e.buildDrafts([]section{{
				title: resolveTitle(doc),
				html:  whole,
				image: resolveImage(whole, doc),
			}}, pageURL, e.cfg.WholePageMin)
		}
	}

	if len(drafts) == 0 {
		return nil, &types.ExtractError{URL: pageURL, Err: types.ErrNoSections}
	}
	if len(drafts) > e.cfg.MaxSections {
		drafts = drafts[:e.cfg.MaxSections]
	}
	return drafts, nil
}

// buildDrafts filters, deduplicates, and converts sections to drafts.
func (e *Extractor) buildDrafts(sections []section, pageURL string, minChars int) []*types.ArticleDraft {
	var drafts []*types.ArticleDraft
	seen := make(map[string]struct{})

	for _, sec := range sections {
		title := cleanText(sec.title)
		if title == "" {
			title = "Review"
		}
		if _, blocked := boilerplateTitles[strings.ToUpper(title)]; blocked {
			continue
		}

		text := plainText(sec.html)
		if len(text) < minChars {
			continue
		}
		if homepageMarker.MatchString(title + " " + text) {
			continue
		}

		key := strings.ToLower(title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		drafts = append(drafts, &types.ArticleDraft{
			Title:     title,
			Excerpt:   truncate(text, excerptLimit),
			Body:      e.toMarkdown(sec.html),
			ImageURL:  sec.image,
			SourceURL: pageURL,
		})
	}
	return drafts
}

// articleSections maps each <article> element to one section.
func articleSections(articles *goquery.Selection) []section {
	var sections []section
	articles.Each(func(_ int, a *goquery.Selection) {
		inner, err := a.Html()
		if err != nil {
			return
		}
		sections = append(sections, section{
			title: cleanText(a.Find("h1, h2, h3, h4").First().Text()),
			html:  inner,
			image: firstAttr(a.Find("img"), "src"),
		})
	})
	return sections
}

// cardSections harvests card-style containers from a league hub page. Only
// outermost cards with a heading of their own are taken.
func cardSections(doc *goquery.Document) []section {
	var sections []section
	doc.Find("div[class*=card], section[class*=card], li[class*=card]").Each(func(_ int, c *goquery.Selection) {
		if c.ParentsFiltered("[class*=card]").Length() > 0 {
			return
		}
		title := cleanText(c.Find("h1, h2, h3, h4").First().Text())
		if title == "" {
			return
		}
		inner, err := c.Html()
		if err != nil {
			return
		}
		sections = append(sections, section{
			title: title,
			html:  inner,
			image: firstAttr(c.Find("img"), "src"),
		})
	})
	return sections
}

// pageItem is one node of the flattened main region: either a heading or a
// content block.
type pageItem struct {
	node    *html.Node
	heading int // 0 for content, else 2 or 3
}

// contentTags are block elements that carry section content. Their subtrees
// are taken whole, never descended into again.
var contentTags = map[string]struct{}{
	"p": {}, "ul": {}, "ol": {}, "blockquote": {}, "pre": {},
	"table": {}, "figure": {}, "img": {}, "h4": {},
}

// headingSections splits a region at h2/h3 boundaries. A section spans from
// its heading until the next heading of equal-or-higher level: an h2 closes
// both h2 and h3 sections, an h3 closes only h3 sections.
func headingSections(region *goquery.Selection) []section {
	root := region.Get(0)
	if root == nil {
		return nil
	}

	items := flatten(root)

	var sections []section
	for i, it := range items {
		if it.heading == 0 {
			continue
		}

		end := len(items)
		for j := i + 1; j < len(items); j++ {
			if items[j].heading != 0 && items[j].heading <= it.heading {
				end = j
				break
			}
		}

		var buf strings.Builder
		var image string
		for _, part := range items[i+1 : end] {
			if part.heading != 0 {
				continue
			}
			if image == "" {
				image = firstImageSrc(part.node)
			}
			html.Render(&buf, part.node)
		}

		sections = append(sections, section{
			title: cleanText(nodeText(it.node)),
			html:  buf.String(),
			image: image,
		})
	}
	return sections
}

// flatten lists headings and content blocks in document order, without
// descending into taken content blocks.
func flatten(root *html.Node) []pageItem {
	var items []pageItem
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h2":
				items = append(items, pageItem{node: n, heading: 2})
				return
			case "h3":
				items = append(items, pageItem{node: n, heading: 3})
				return
			}
			if _, ok := contentTags[n.Data]; ok {
				items = append(items, pageItem{node: n})
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return items
}

// nodeText collects the text content of a node subtree.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// firstImageSrc finds the first <img src> in a node subtree.
func firstImageSrc(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "img" {
		for _, a := range n.Attr {
			if a.Key == "src" && strings.TrimSpace(a.Val) != "" {
				return strings.TrimSpace(a.Val)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if src := firstImageSrc(c); src != "" {
			return src
		}
	}
	return ""
}
