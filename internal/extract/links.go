package extract

import (
	nurl "net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// skipExtensions are media/file suffixes that are never article pages.
var skipExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".ico",
	".mp4", ".mp3", ".avi", ".mov", ".pdf", ".zip", ".rar", ".css", ".js",
}

// skipDomains are social/auxiliary hosts that never serve source articles.
var skipDomains = []string{
	"facebook.com", "twitter.com", "x.com", "instagram.com", "youtube.com",
	"tiktok.com", "linkedin.com", "whatsapp.com", "t.me", "discord.gg",
	"discord.com", "reddit.com", "pinterest.com",
}

// skipPathWords mark auth and policy pages.
var skipPathWords = []string{
	"login", "signin", "sign-in", "signup", "sign-up", "register",
	"privacy", "terms", "cookie", "cookies", "policy", "account",
}

var (
	articleKeywords = regexp.MustCompile(`(?i)review|gameweek|preview|recap|round-?up`)
	numberPattern   = regexp.MustCompile(`(?i)\bgw\s*\d{1,2}\b|\b\d{2,4}\b`)
	readMoreWords   = regexp.MustCompile(`(?i)read more|continue reading|full story|share`)
)

// scoredLink carries a candidate through ranking.
type scoredLink struct {
	url   string
	score int
	order int
}

// Links harvests likely article links from a hub page, best first.
//
// Anchors inside priority containers are scanned before the whole document.
// Candidates are deduplicated by origin+path and ranked by keyword signals;
// ties keep document order. When the page has no qualifying anchors at all
// (a text-proxy render, typically), a regex fallback mines numeric-ID URL
// patterns from the raw text.
func (e *Extractor) Links(htmlSrc, baseURL string, max int) ([]string, error) {
	if max <= 0 {
		max = e.cfg.MaxLinks
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlSrc))
	if err != nil {
		return nil, err
	}

	base, err := nurl.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	anchors := doc.Find("main a[href], article a[href], [class*='card'] a[href], [class*='post'] a[href], h2 a[href], h3 a[href]")
	if anchors.Length() == 0 {
		anchors = doc.Find("a[href]")
	}

	seen := make(map[string]struct{})
	var candidates []scoredLink

	anchors.Each(func(i int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		resolved, ok := qualifyLink(href, base)
		if !ok {
			return
		}

		key := dedupKey(resolved)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}

		text := cleanText(a.Text())
		candidates = append(candidates, scoredLink{
			url:   resolved.String(),
			score: scoreLink(resolved.Path, text),
			order: i,
		})
	})

	if len(candidates) == 0 {
		return e.regexLinks(htmlSrc, base, max), nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].order < candidates[j].order
	})

	var out []string
	for _, c := range candidates {
		out = append(out, c.url)
		if len(out) >= max {
			break
		}
	}
	return out, nil
}

// qualifyLink resolves and filters one href. Absolute http(s) and
// site-relative links qualify; in-page anchors, mailto/tel, media files,
// social hosts, and auth/policy pages do not.
func qualifyLink(href string, base *nurl.URL) (*nurl.URL, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "javascript:") {
		return nil, false
	}

	u, err := nurl.Parse(href)
	if err != nil {
		return nil, false
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	resolved := base.ResolveReference(u)
	if resolved.Host == "" {
		return nil, false
	}

	lowerPath := strings.ToLower(resolved.Path)
	for _, ext := range skipExtensions {
		if strings.HasSuffix(lowerPath, ext) {
			return nil, false
		}
	}

	host := strings.ToLower(strings.TrimPrefix(resolved.Hostname(), "www."))
	for _, d := range skipDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return nil, false
		}
	}

	for _, w := range skipPathWords {
		if strings.Contains(lowerPath, w) {
			return nil, false
		}
	}

	return resolved, true
}

// dedupKey normalizes a URL to origin+path with the trailing slash ignored.
func dedupKey(u *nurl.URL) string {
	return strings.ToLower(u.Scheme + "://" + u.Host + strings.TrimSuffix(u.Path, "/"))
}

// scoreLink ranks a candidate by heuristic signals in its path and anchor
// text.
func scoreLink(path, text string) int {
	score := 0
	if articleKeywords.MatchString(path) || articleKeywords.MatchString(text) {
		score += 5
	}
	if numberPattern.MatchString(path) || numberPattern.MatchString(text) {
		score += 2
	}
	if readMoreWords.MatchString(text) {
		score += 1
	}
	return score
}

// regexLinks mines numeric-ID URL patterns from raw text when no real
// anchors exist. Full URLs matching the hub's host come first, then
// site-relative numeric paths, then bare numeric-ID tokens.
func (e *Extractor) regexLinks(src string, base *nurl.URL, max int) []string {
	seen := make(map[string]struct{})
	var out []string

	add := func(link string) {
		if len(out) >= max {
			return
		}
		u, err := nurl.Parse(link)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(u)
		key := dedupKey(resolved)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, resolved.String())
	}

	host := regexp.QuoteMeta(base.Hostname())
	absolute := regexp.MustCompile(`https?://(?:www\.)?` + host + `/\d{5,9}\b`)
	for _, m := range absolute.FindAllString(src, -1) {
		add(m)
	}

	relative := regexp.MustCompile(`(?:^|[\s"'(>])(/\d{5,9})\b`)
	for _, m := range relative.FindAllStringSubmatch(src, -1) {
		add(m[1])
	}

	bare := regexp.MustCompile(`\b(\d{5,9})\b`)
	for _, m := range bare.FindAllStringSubmatch(src, -1) {
		add("/" + m[1])
	}

	return out
}
