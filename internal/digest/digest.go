package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Rehan-24/fpl-digest/internal/config"
	"github.com/Rehan-24/fpl-digest/internal/extract"
	"github.com/Rehan-24/fpl-digest/internal/fetcher"
	"github.com/Rehan-24/fpl-digest/internal/fpl"
	"github.com/Rehan-24/fpl-digest/internal/league"
	"github.com/Rehan-24/fpl-digest/internal/publish"
	"github.com/Rehan-24/fpl-digest/internal/schedule"
	"github.com/Rehan-24/fpl-digest/internal/types"
)

// jobTimeout bounds a single scheduled run end to end.
const jobTimeout = 10 * time.Minute

// Digest owns the pipeline's mutable state and wires the scheduled jobs. All
// cross-job state lives here behind one mutex; the component packages below
// it stay stateless.
type Digest struct {
	cfg       *config.Config
	logger    *slog.Logger
	client    *fetcher.Client
	chain     *fetcher.RenderChain
	extractor *extract.Extractor
	bootstrap *fpl.Client
	selector  *league.Selector
	news      publish.NewsSink
	discord   publish.DiscordSink
	sched     *schedule.Scheduler

	mu           sync.Mutex
	lastPriceSig string
	reminderJobs []*schedule.Job
	remindersFor time.Time
}

// New wires the orchestrator. Sinks are injected so tests can capture output.
func New(cfg *config.Config, client *fetcher.Client, chain *fetcher.RenderChain,
	bootstrap *fpl.Client, news publish.NewsSink, discord publish.DiscordSink,
	sched *schedule.Scheduler, logger *slog.Logger) *Digest {
	return &Digest{
		cfg:       cfg,
		logger:    logger.With("component", "digest"),
		client:    client,
		chain:     chain,
		extractor: extract.New(&cfg.Extract, logger),
		bootstrap: bootstrap,
		selector:  league.NewSelector(&cfg.League, logger),
		news:      news,
		discord:   discord,
		sched:     sched,
	}
}

// Start registers the recurring jobs and arms the deadline reminders.
func (d *Digest) Start(ctx context.Context) error {
	tz := d.cfg.Schedule.Timezone

	if _, err := d.sched.Weekly(time.Weekday(d.cfg.Schedule.ReviewWeekday),
		d.cfg.Schedule.ReviewHour, d.cfg.Schedule.ReviewMinute, tz,
		"weekly-review", d.WeeklyReviewJob(ctx)); err != nil {
		return err
	}
	if _, err := d.sched.Daily(d.cfg.Schedule.MatchupHour, d.cfg.Schedule.MatchupMinute,
		tz, "matchup-highlight", d.MatchupJob(ctx)); err != nil {
		return err
	}
	if _, err := d.sched.AtLocalTimes(d.cfg.Schedule.PriceTimes, tz,
		"price-poll", d.PricePollJob(ctx)); err != nil {
		return err
	}
	if _, err := d.sched.Daily(6, 0, tz, "calendar-sync", d.CalendarSyncJob(ctx)); err != nil {
		return err
	}

	if err := d.bootstrap.Refresh(ctx); err != nil {
		d.logger.Warn("initial bootstrap refresh failed", "error", err)
	} else {
		d.armReminders(ctx)
	}
	return nil
}

// WeeklyReviewJob publishes the gameweek review: renders the review hub,
// harvests article links, and publishes each linked article as a draft.
func (d *Digest) WeeklyReviewJob(ctx context.Context) func() {
	return func() {
		jctx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()
		if err := d.runWeeklyReview(jctx); err != nil {
			d.logger.Error("weekly review failed", "error", err)
		}
	}
}

func (d *Digest) runWeeklyReview(ctx context.Context) error {
	hubURL := d.cfg.League.ReviewURL
	if hubURL == "" {
		return errors.New("no review URL configured")
	}

	hub, err := d.chain.Render(ctx, hubURL)
	if err != nil {
		return fmt.Errorf("render review hub: %w", err)
	}

	links, err := d.extractor.Links(hub.HTML, hub.URL, d.cfg.Extract.MaxLinks)
	if err != nil {
		d.logger.Warn("no article links on hub, splitting hub page itself", "error", err)
		return d.publishSections(ctx, hub.HTML, hub.URL)
	}

	published := 0
	for _, link := range links {
		if err := d.publishArticle(ctx, link); err != nil {
			d.logger.Warn("article skipped", "url", link, "error", err)
			continue
		}
		published++
	}
	if published == 0 {
		return d.publishSections(ctx, hub.HTML, hub.URL)
	}
	d.logger.Info("weekly review published", "articles", published)
	return nil
}

func (d *Digest) publishArticle(ctx context.Context, url string) error {
	page, err := d.chain.Render(ctx, url)
	if err != nil {
		return err
	}
	draft, err := d.extractor.Article(page.HTML, page.URL)
	if err != nil {
		return err
	}
	d.decorate(draft, page.HTML)
	return d.news.Publish(ctx, draft, d.tagsFor(page.URL))
}

// publishSections is the league-page path: split the page into sections and
// publish each as its own draft.
func (d *Digest) publishSections(ctx context.Context, html, pageURL string) error {
	drafts, err := d.extractor.LeagueSections(html, pageURL)
	if err != nil {
		return fmt.Errorf("split sections: %w", err)
	}
	tags := d.tagsFor(pageURL)
	for _, draft := range drafts {
		d.decorate(draft, html)
		if err := d.news.Publish(ctx, draft, tags); err != nil {
			d.logger.Warn("section skipped", "title", draft.Title, "error", err)
		}
	}
	return nil
}

// decorate applies the gameweek prefix to titles that lack one.
func (d *Digest) decorate(draft *types.ArticleDraft, pageHTML string) {
	if strings.HasPrefix(draft.Title, "GW") {
		return
	}
	if gw, ok := publish.SniffGameweek(draft.Title + " " + draft.Excerpt); ok {
		draft.Title = publish.ReviewTitle(gw, draft.Title)
		return
	}
	if gw, ok := publish.SniffGameweek(pageHTML); ok {
		draft.Title = publish.ReviewTitle(gw, draft.Title)
	}
}

func (d *Digest) tagsFor(pageURL string) []string {
	return []string{
		publish.LeagueTag(pageURL, d.cfg.League.LeagueTags),
		d.cfg.Publish.SeasonTag,
	}
}

// PricePollJob fetches the price-change feed and posts risers and fallers,
// suppressing reposts of an unchanged set.
func (d *Digest) PricePollJob(ctx context.Context) func() {
	return func() {
		jctx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()
		if err := d.runPricePoll(jctx); err != nil {
			d.logger.Error("price poll failed", "error", err)
		}
	}
}

func (d *Digest) runPricePoll(ctx context.Context) error {
	if d.cfg.League.PricesURL == "" {
		return errors.New("no prices URL configured")
	}
	resp, err := d.client.Get(ctx, d.cfg.League.PricesURL)
	if err != nil {
		return fmt.Errorf("fetch prices: %w", err)
	}
	rows, err := league.DecodeRows(resp.Body)
	if err != nil {
		return fmt.Errorf("decode prices: %w", err)
	}

	risers, fallers := league.ClassifyPriceChanges(league.NormalizePriceRows(rows))
	if len(risers) == 0 && len(fallers) == 0 {
		d.logger.Info("no price changes")
		return nil
	}

	sig := league.Signature(risers, fallers)
	d.mu.Lock()
	repeat := sig == d.lastPriceSig
	if !repeat {
		d.lastPriceSig = sig
	}
	d.mu.Unlock()
	if repeat {
		d.logger.Info("price changes unchanged since last poll, suppressing")
		return nil
	}

	return d.discord.Send(ctx, formatPriceReport(risers, fallers))
}

func formatPriceReport(risers, fallers []types.PriceSignal) string {
	var b strings.Builder
	b.WriteString("**Price Changes**\n")
	if len(risers) > 0 {
		b.WriteString("\n📈 Risers\n")
		for _, r := range risers {
			fmt.Fprintf(&b, "• %s (%s) → £%.1fm\n", r.Name, r.Team, r.Price)
		}
	}
	if len(fallers) > 0 {
		b.WriteString("\n📉 Fallers\n")
		for _, f := range fallers {
			fmt.Fprintf(&b, "• %s (%s) → £%.1fm\n", f.Name, f.Team, f.Price)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// MatchupJob posts the most dramatic upcoming matchups from the league
// standings.
func (d *Digest) MatchupJob(ctx context.Context) func() {
	return func() {
		jctx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()
		if err := d.runMatchups(jctx); err != nil {
			d.logger.Error("matchup highlight failed", "error", err)
		}
	}
}

func (d *Digest) runMatchups(ctx context.Context) error {
	if d.cfg.League.StandingsURL == "" {
		return errors.New("no standings URL configured")
	}
	teams, err := d.loadStandings(ctx)
	if err != nil {
		return err
	}

	var fixtures []types.Fixture
	if d.cfg.League.FixturesURL != "" {
		fixtures, err = d.loadFixtures(ctx)
		if err != nil {
			d.logger.Warn("fixtures unavailable, falling back to standings heuristic", "error", err)
		}
	}

	leagueTag := publish.LeagueTag(d.cfg.League.StandingsURL, d.cfg.League.LeagueTags)
	picks := d.selector.Select(teams, fixtures, leagueTag)
	if len(picks) == 0 {
		d.logger.Info("no matchups worth highlighting", "teams", len(teams))
		return nil
	}
	return d.discord.Send(ctx, formatMatchups(picks))
}

func (d *Digest) loadStandings(ctx context.Context) ([]types.TeamStanding, error) {
	resp, err := d.client.Get(ctx, d.cfg.League.StandingsURL)
	if err != nil {
		return nil, fmt.Errorf("fetch standings: %w", err)
	}

	rows, err := league.DecodeRows(resp.Body)
	if err != nil {
		// Some league hosts serve the table as HTML.
		rows, err = league.ParseStandingsTable(string(resp.Body))
		if err != nil {
			return nil, fmt.Errorf("decode standings: %w", err)
		}
	}

	teams := league.NormalizeStandings(rows)
	if len(teams) == 0 {
		return nil, types.ErrNoUsableRows
	}
	return teams, nil
}

func (d *Digest) loadFixtures(ctx context.Context) ([]types.Fixture, error) {
	resp, err := d.client.Get(ctx, d.cfg.League.FixturesURL)
	if err != nil {
		return nil, err
	}
	rows, err := league.DecodeRows(resp.Body)
	if err != nil {
		return nil, err
	}
	return league.NormalizeFixtures(rows), nil
}

func formatMatchups(picks []types.MatchupPick) string {
	var b strings.Builder
	b.WriteString("**Matchups to Watch**\n")
	for _, p := range picks {
		fmt.Fprintf(&b, "\n⚔️ %s — %s", p.Label, p.Reason)
	}
	return b.String()
}

// DeadlineReminderJob posts one reminder for the given gameweek deadline.
func (d *Digest) DeadlineReminderJob(ctx context.Context, ev fpl.Event, lead time.Duration) func() {
	return func() {
		jctx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()
		msg := fmt.Sprintf("⏰ **%s deadline** %s — set your team!",
			ev.Name, describeLead(lead))
		if err := d.discord.Send(jctx, msg); err != nil {
			d.logger.Error("deadline reminder failed", "event", ev.Name, "error", err)
		}
	}
}

func describeLead(lead time.Duration) string {
	if lead >= time.Hour {
		h := int(lead / time.Hour)
		if h == 1 {
			return "in 1 hour"
		}
		return fmt.Sprintf("in %d hours", h)
	}
	return fmt.Sprintf("in %d minutes", int(lead/time.Minute))
}

// CalendarSyncJob refreshes bootstrap data and rebuilds the reminder jobs
// when the next deadline has moved.
func (d *Digest) CalendarSyncJob(ctx context.Context) func() {
	return func() {
		jctx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()
		if err := d.bootstrap.Refresh(jctx); err != nil {
			d.logger.Error("bootstrap refresh failed", "error", err)
			return
		}
		d.armReminders(ctx)
	}
}

// armReminders schedules one-shot reminders ahead of the next deadline,
// replacing any reminders armed for a deadline that has since shifted.
func (d *Digest) armReminders(ctx context.Context) {
	ev, err := d.bootstrap.NextDeadline(time.Now())
	if err != nil {
		d.logger.Warn("no upcoming deadline", "error", err)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if ev.DeadlineAt.Equal(d.remindersFor) {
		return
	}
	for _, j := range d.reminderJobs {
		j.Cancel()
	}
	d.reminderJobs = d.reminderJobs[:0]
	d.remindersFor = ev.DeadlineAt

	for _, lead := range d.cfg.Schedule.ReminderLead {
		at := ev.DeadlineAt.Add(-lead)
		label := fmt.Sprintf("reminder-%s-%s", ev.Name, lead)
		if job := d.sched.At(at, label, d.DeadlineReminderJob(ctx, ev, lead)); job != nil {
			d.reminderJobs = append(d.reminderJobs, job)
		}
	}
	d.logger.Info("deadline reminders armed",
		"event", ev.Name, "deadline", ev.DeadlineAt, "count", len(d.reminderJobs))
}
