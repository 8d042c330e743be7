package fetcher

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// challengeMarkers are content signatures of anti-bot interstitials. A page
// matching any of them is treated as blocked, not as real content.
var challengeMarkers = []string{
	"just a moment",
	"checking your browser",
	"cloudflare",
	"cf-browser-verification",
	"verify you are human",
	"attention required!",
	"ddos protection by",
	"enable javascript and cookies to continue",
}

// DetectChallenge returns the first anti-bot marker found in the HTML, or ""
// if none match.
func DetectChallenge(html string) string {
	lower := strings.ToLower(html)
	for _, marker := range challengeMarkers {
		if strings.Contains(lower, marker) {
			return marker
		}
	}
	return ""
}

// IsAppShell reports whether the document looks like an unrendered SPA shell:
// a near-empty <body> or a single empty root div waiting for a script to
// populate it.
func IsAppShell(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		return true
	}

	text := strings.TrimSpace(body.Text())
	if len(text) < 200 {
		return true
	}

	// One bare root div (#root, #app, #__next) with no text is the classic
	// client-rendered shell.
	if body.Children().Length() <= 2 {
		root := body.Find("#root, #app, #__next").First()
		if root.Length() > 0 && strings.TrimSpace(root.Text()) == "" {
			return true
		}
	}
	return false
}

// Sufficient is the quality predicate applied to each rendering stage's
// output: no challenge signature, length above the configured minimum, and
// not an application shell.
func Sufficient(html string, minLen int) bool {
	if len(html) < minLen {
		return false
	}
	if DetectChallenge(html) != "" {
		return false
	}
	return !IsAppShell(html)
}
