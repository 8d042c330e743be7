package publish

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Rehan-24/fpl-digest/internal/types"
)

var (
	gwPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bGW\s*(\d{1,2})\b`),
		regexp.MustCompile(`(?i)\bGameweek\s*(\d{1,2})\b`),
	}

	leagueCodePattern = regexp.MustCompile(`(\d{5,9})`)

	collapsePattern = regexp.MustCompile(`[ \t]+`)
	blankPattern    = regexp.MustCompile(`\n{3,}`)
)

// SniffGameweek scans text for a gameweek number.
func SniffGameweek(text string) (int, bool) {
	for _, pat := range gwPatterns {
		if m := pat.FindStringSubmatch(text); m != nil {
			var gw int
			fmt.Sscanf(m[1], "%d", &gw)
			if gw >= 1 && gw <= 38 {
				return gw, true
			}
		}
	}
	return 0, false
}

// ReviewTitle prefixes a title with its gameweek when one was sniffed.
func ReviewTitle(gw int, title string) string {
	if gw > 0 {
		return fmt.Sprintf("GW%d Review: %s", gw, title)
	}
	return title
}

// LeagueTag maps the numeric league code found in pageURL to a configured
// tag, defaulting to Championship when the code is absent or unmapped.
func LeagueTag(pageURL string, tags map[string]string) string {
	if m := leagueCodePattern.FindStringSubmatch(pageURL); m != nil {
		if tag, ok := tags[m[1]]; ok {
			return tag
		}
	}
	return "Championship"
}

// Sanitize cleans text for publication: normalizes exotic whitespace,
// collapses runs of blank lines, and truncates to max runes.
func Sanitize(text string, max int) string {
	replacer := strings.NewReplacer(
		"\u00a0", " ",
		"\u200b", "",
		"\u200c", "",
		"\ufeff", "",
		"\r\n", "\n",
		"\r", "\n",
	)
	text = replacer.Replace(text)
	text = collapsePattern.ReplaceAllString(text, " ")
	text = blankPattern.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	runes := []rune(text)
	if max > 0 && len(runes) > max {
		text = strings.TrimSpace(string(runes[:max-1])) + "…"
	}
	return text
}

// Command renders a draft as the bot's publish command text.
func Command(draft *types.ArticleDraft, tags []string, maxContent int) string {
	var b strings.Builder
	b.WriteString("/publish_news title: ")
	b.WriteString(Sanitize(draft.Title, 0))
	b.WriteString(" content: ")
	b.WriteString(Sanitize(draft.Body, maxContent))
	b.WriteString(" tags: ")
	b.WriteString(strings.Join(tags, ", "))
	if draft.Excerpt != "" {
		b.WriteString(" excerpt: ")
		b.WriteString(Sanitize(draft.Excerpt, 0))
	}
	if draft.ImageURL != "" {
		b.WriteString(" image_url: ")
		b.WriteString(draft.ImageURL)
	}
	return b.String()
}
