package extract

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Rehan-24/fpl-digest/internal/config"
	"github.com/Rehan-24/fpl-digest/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func newTestExtractor() *Extractor {
	cfg := config.DefaultConfig().Extract
	return New(&cfg, testLogger)
}

// para builds a paragraph of roughly n characters of plain text.
func para(n int) string {
	const sentence = "The gaffer insists the squad rotation was tactical and not a panic move after the derby collapse. "
	return "<p>" + strings.Repeat(sentence, n/len(sentence)+1) + "</p>"
}

const articlePage = `<!DOCTYPE html>
<html>
<head>
<title>Rovers Crumble Again | fplmundo</title>
<meta property="og:title" content="Rovers Crumble Again">
<meta property="og:image" content="https://cdn.example.com/rovers.jpg">
</head>
<body>
<header><nav><a href="/">Home</a></nav></header>
<article>
<h1>Rovers Crumble Again</h1>
<p>Rovers went into Gameweek 12 with a four point cushion and left it with a crisis.
The captaincy call backfired spectacularly when the armband went to a striker who was
benched an hour before kickoff, and the bench boost was burned on a blank.</p>
<p>Down the other end of the table, the Wanderers quietly assembled their best week of
the season, a 78 point haul built on differentials nobody else in the league owns.
The gap at the top is now two points with a double gameweek looming large.</p>
<p>Asked for comment, the Rovers manager said only that transfers were planned and
that the wildcard remains unused. The rest of the league is not convinced. The form
table does not lie, and it currently has Rovers dead last over the past month.</p>
</article>
<script>analytics();</script>
</body>
</html>`

func TestArticleExtraction(t *testing.T) {
	e := newTestExtractor()

	draft, err := e.Article(articlePage, "https://fplmundo.com/123456")
	if err != nil {
		t.Fatalf("extract error: %v", err)
	}
	if draft.Title == "" || draft.Title == "Review" {
		t.Errorf("title ladder failed: %q", draft.Title)
	}
	if !strings.Contains(draft.Body, "[Read the original](https://fplmundo.com/123456)") {
		t.Error("backlink missing from body")
	}
	if strings.Contains(draft.Body, "analytics()") {
		t.Error("script content leaked into body")
	}
	if draft.Excerpt == "" || len(draft.Excerpt) > 603 {
		t.Errorf("excerpt out of bounds: %d chars", len(draft.Excerpt))
	}
	if draft.SourceURL != "https://fplmundo.com/123456" {
		t.Errorf("source URL %q", draft.SourceURL)
	}
}

func TestArticleTooShort(t *testing.T) {
	e := newTestExtractor()

	_, err := e.Article("<html><body><article><p>Tiny.</p></article></body></html>", "https://fplmundo.com/1")
	if !errors.Is(err, types.ErrBodyTooShort) {
		t.Fatalf("expected ErrBodyTooShort, got %v", err)
	}
	var xe *types.ExtractError
	if !errors.As(err, &xe) {
		t.Fatalf("expected ExtractError, got %T", err)
	}
}

func TestTruncateKeepsValidUTF8(t *testing.T) {
	in := strings.Repeat("José señaló el balón. ", 40)
	got := truncate(in, 100)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got)
	}
	if runes := []rune(got); len(runes) != 101 || runes[100] != '…' {
		t.Errorf("expected 100 runes plus ellipsis, got %d", len(runes))
	}
	if got := truncate("short", 100); got != "short" {
		t.Errorf("short input changed: %q", got)
	}
}

func TestSectionsFromArticleElements(t *testing.T) {
	e := newTestExtractor()

	page := `<html><body>
<article><h2>Title Race Tightens</h2>` + para(900) + `</article>
<article><h2>Footer Note</h2><p>Too short to stand alone.</p></article>
</body></html>`

	drafts, err := e.Sections(page, "https://fplmundo.com/leagues/723566")
	if err != nil {
		t.Fatalf("split error: %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("expected 1 section, got %d", len(drafts))
	}
	if drafts[0].Title != "Title Race Tightens" {
		t.Errorf("title %q", drafts[0].Title)
	}
}

func TestLeagueSectionsKeepShortCards(t *testing.T) {
	e := newTestExtractor()

	// Hub cards are short blurbs, well under the article-section minimum but
	// above the card minimum.
	page := `<html><body><main>
<div class="news-card"><h3>Transfer Gossip</h3><p>Three managers are hoarding funds ahead of the double gameweek, with two wildcards still live in the top six.</p></div>
<div class="news-card"><h3>Injury Desk</h3><p>The Rovers talisman limped off in midweek and is now a serious doubt for the Saturday deadline.</p></div>
</main></body></html>`

	drafts, err := e.LeagueSections(page, "https://fplmundo.com/leagues/723566")
	if err != nil {
		t.Fatalf("split error: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("expected 2 card sections, got %d", len(drafts))
	}
	if drafts[0].Title != "Transfer Gossip" || drafts[1].Title != "Injury Desk" {
		t.Errorf("titles: %q, %q", drafts[0].Title, drafts[1].Title)
	}

	// The same blurbs fail the article-section minimum on the article path.
	if _, err := e.Sections(page, "https://fplmundo.com/leagues/723566"); err == nil {
		t.Error("expected short blurbs to be rejected on the article path")
	}
}

func TestLeagueSectionsCardMinimum(t *testing.T) {
	e := newTestExtractor()

	page := `<html><body><main>
<div class="card"><h3>Real Story</h3><p>A proper blurb about the title race that comfortably clears the card floor, naming names and quoting the gaffer at length.</p></div>
<div class="card"><h3>Stub</h3><p>Too short.</p></div>
</main></body></html>`

	drafts, err := e.LeagueSections(page, "https://fplmundo.com/leagues/723566")
	if err != nil {
		t.Fatalf("split error: %v", err)
	}
	if len(drafts) != 1 || drafts[0].Title != "Real Story" {
		t.Fatalf("expected only the long card, got %d drafts", len(drafts))
	}
}

func TestSectionsHeadingBoundaries(t *testing.T) {
	e := newTestExtractor()

	page := `<html><body><main>
<h2>The Big Story</h2>` + para(700) + `
<h3>A Sidebar</h3>` + para(700) + `
<h2>Second Story</h2>` + para(700) + `
</main></body></html>`

	drafts, err := e.Sections(page, "https://fplmundo.com/leagues/723566")
	if err != nil {
		t.Fatalf("split error: %v", err)
	}
	if len(drafts) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(drafts))
	}
	// An h2 section runs until the next h2, so the sidebar's text belongs to
	// both its own h3 section and the enclosing h2 story.
	if drafts[0].Title != "The Big Story" || drafts[1].Title != "A Sidebar" || drafts[2].Title != "Second Story" {
		t.Errorf("titles: %q, %q, %q", drafts[0].Title, drafts[1].Title, drafts[2].Title)
	}
}

func TestSectionsDropBoilerplateAndDuplicates(t *testing.T) {
	e := newTestExtractor()

	page := `<html><body><main>
<h2>DISCLAIMER</h2>` + para(700) + `
<h2>Derby Week</h2>` + para(700) + `
<h2>derby week</h2>` + para(700) + `
</main></body></html>`

	drafts, err := e.Sections(page, "https://fplmundo.com/leagues/723566")
	if err != nil {
		t.Fatalf("split error: %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("expected 1 section after filtering, got %d", len(drafts))
	}
	if drafts[0].Title != "Derby Week" {
		t.Errorf("title %q", drafts[0].Title)
	}
}

func TestSectionsCapped(t *testing.T) {
	e := newTestExtractor()

	var b strings.Builder
	b.WriteString("<html><body><main>")
	for _, title := range []string{"One", "Two", "Three", "Four", "Five", "Six"} {
		b.WriteString("<h2>Story " + title + "</h2>")
		b.WriteString(para(700))
	}
	b.WriteString("</main></body></html>")

	drafts, err := e.Sections(b.String(), "https://fplmundo.com/leagues/723566")
	if err != nil {
		t.Fatalf("split error: %v", err)
	}
	if len(drafts) != 4 {
		t.Errorf("expected cap of 4 sections, got %d", len(drafts))
	}
}

func TestSectionsWholePageFallback(t *testing.T) {
	e := newTestExtractor()

	page := `<html><head><title>Quiet Week</title></head><body><main>` + para(400) + `</main></body></html>`
	drafts, err := e.Sections(page, "https://fplmundo.com/leagues/9")
	if err != nil {
		t.Fatalf("split error: %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("expected whole-page section, got %d", len(drafts))
	}
	if drafts[0].Title != "Quiet Week" {
		t.Errorf("title %q", drafts[0].Title)
	}
}

func TestSectionsEmptyPage(t *testing.T) {
	e := newTestExtractor()

	_, err := e.Sections("<html><body><p>hi</p></body></html>", "https://fplmundo.com/leagues/9")
	if !errors.Is(err, types.ErrNoSections) {
		t.Fatalf("expected ErrNoSections, got %v", err)
	}
}

func TestSectionsRejectHomepage(t *testing.T) {
	e := newTestExtractor()

	page := `<html><body><main>
<h2>Masthead</h2><p>The original FPL mini-league newspaper. ` +
		strings.Repeat("Read all about it. ", 50) + `</p>
</main></body></html>`

	_, err := e.Sections(page, "https://fplmundo.com/")
	if !errors.Is(err, types.ErrNoSections) {
		t.Fatalf("homepage should yield no sections, got %v", err)
	}
}

func TestLinksScoring(t *testing.T) {
	e := newTestExtractor()

	page := `<html><body><main>
<a href="/about">About us</a>
<a href="/gameweek-12-review">GW12 Review</a>
<a href="/some-page">Read more</a>
<a href="https://facebook.com/fplmundo">Share</a>
<a href="/photo.jpg">Photo</a>
<a href="/privacy">Privacy</a>
</main></body></html>`

	links, err := e.Links(page, "https://fplmundo.com/", 6)
	if err != nil {
		t.Fatalf("links error: %v", err)
	}
	if len(links) != 3 {
		t.Fatalf("expected 3 qualifying links, got %d: %v", len(links), links)
	}
	if links[0] != "https://fplmundo.com/gameweek-12-review" {
		t.Errorf("keyword link should rank first, got %q", links[0])
	}
	if links[1] != "https://fplmundo.com/some-page" {
		t.Errorf("read-more link should rank second, got %q", links[1])
	}
}

func TestLinksDeduplicate(t *testing.T) {
	e := newTestExtractor()

	page := `<html><body><main>
<a href="/story-one">First</a>
<a href="/story-one/">First again</a>
</main></body></html>`

	links, err := e.Links(page, "https://fplmundo.com/", 6)
	if err != nil {
		t.Fatalf("links error: %v", err)
	}
	if len(links) != 1 {
		t.Errorf("trailing slash variant not deduplicated: %v", links)
	}
}

func TestLinksRegexFallback(t *testing.T) {
	e := newTestExtractor()

	page := WrapProxyFixture(`Top stories this week:
https://fplmundo.com/123456 the title race
Also see /234567 for the relegation scrap.
Story id 345678 rounds out the week.`)

	links, err := e.Links(page, "https://fplmundo.com/", 6)
	if err != nil {
		t.Fatalf("links error: %v", err)
	}
	want := []string{
		"https://fplmundo.com/123456",
		"https://fplmundo.com/234567",
		"https://fplmundo.com/345678",
	}
	if len(links) != len(want) {
		t.Fatalf("expected %d links, got %v", len(want), links)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("links[%d] = %q, want %q", i, links[i], want[i])
		}
	}
}

// WrapProxyFixture mimics a text-proxy render with no anchors.
func WrapProxyFixture(text string) string {
	return "<html><body><main>" + strings.ReplaceAll(text, "\n", "<br>") + "</main></body></html>"
}
