package publish

import (
	"strings"
	"testing"

	"github.com/Rehan-24/fpl-digest/internal/types"
)

func TestSniffGameweek(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"GW12 Review: chaos at the top", 12, true},
		{"Looking back at Gameweek 7", 7, true},
		{"gw 3 recap", 3, true},
		{"GW99 is not a thing", 0, false},
		{"no week mentioned", 0, false},
	}
	for _, c := range cases {
		got, ok := SniffGameweek(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("SniffGameweek(%q) = %d,%v want %d,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestReviewTitle(t *testing.T) {
	if got := ReviewTitle(12, "Chaos at the Top"); got != "GW12 Review: Chaos at the Top" {
		t.Errorf("got %q", got)
	}
	if got := ReviewTitle(0, "Chaos at the Top"); got != "Chaos at the Top" {
		t.Errorf("unsniffed gameweek must leave the title alone, got %q", got)
	}
}

func TestLeagueTag(t *testing.T) {
	tags := map[string]string{"723566": "Premier"}

	if got := LeagueTag("https://fplmundo.com/league/723566/review", tags); got != "Premier" {
		t.Errorf("got %q", got)
	}
	if got := LeagueTag("https://fplmundo.com/league/999999/review", tags); got != "Championship" {
		t.Errorf("unmapped code: got %q", got)
	}
	if got := LeagueTag("https://fplmundo.com/", tags); got != "Championship" {
		t.Errorf("no code: got %q", got)
	}
}

func TestSanitize(t *testing.T) {
	in := "\ufeffLine\u00a0one\u200b\u200c  here\r\n\r\n\r\n\r\nLine two"
	got := Sanitize(in, 0)
	if got != "Line one here\n\nLine two" {
		t.Errorf("got %q", got)
	}
}

func TestSanitizeTruncates(t *testing.T) {
	got := Sanitize(strings.Repeat("abcde ", 100), 50)
	if runes := []rune(got); len(runes) > 50 {
		t.Errorf("truncated to %d runes", len(runes))
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("missing ellipsis: %q", got)
	}
}

func TestCommand(t *testing.T) {
	draft := &types.ArticleDraft{
		Title:    "GW12 Review: Chaos at the Top",
		Body:     "The title race blew wide open.",
		Excerpt:  "A wild week.",
		ImageURL: "https://cdn.example.com/a.jpg",
	}
	got := Command(draft, []string{"Premier", "GW-Review-2025/26"}, 6000)

	for _, want := range []string{
		"/publish_news title: GW12 Review: Chaos at the Top",
		" content: The title race blew wide open.",
		" tags: Premier, GW-Review-2025/26",
		" excerpt: A wild week.",
		" image_url: https://cdn.example.com/a.jpg",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("command missing %q:\n%s", want, got)
		}
	}
}

func TestSplitMessage(t *testing.T) {
	long := strings.Repeat("line of chatter\n", 300)
	chunks := splitMessage(long, discordMessageLimit)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if n := len([]rune(c)); n > discordMessageLimit {
			t.Errorf("chunk %d has %d runes", i, n)
		}
	}
	joined := strings.Join(chunks, "\n")
	if strings.Count(joined, "line of chatter") != 300 {
		t.Error("content lost while splitting")
	}
}
