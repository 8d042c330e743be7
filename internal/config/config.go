package config

import (
	"time"

	"github.com/Rehan-24/fpl-digest/internal/types"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for mundodigest.
type Config struct {
	Fetcher  FetcherConfig  `mapstructure:"fetcher"  yaml:"fetcher"`
	Render   RenderConfig   `mapstructure:"render"   yaml:"render"`
	Extract  ExtractConfig  `mapstructure:"extract"  yaml:"extract"`
	League   LeagueConfig   `mapstructure:"league"   yaml:"league"`
	FPL      FPLConfig      `mapstructure:"fpl"      yaml:"fpl"`
	Schedule ScheduleConfig `mapstructure:"schedule" yaml:"schedule"`
	Publish  PublishConfig  `mapstructure:"publish"  yaml:"publish"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// FetcherConfig controls the retrying HTTP client.
type FetcherConfig struct {
	MaxRetries      int           `mapstructure:"max_retries"       yaml:"max_retries"`
	BaseDelay       time.Duration `mapstructure:"base_delay"        yaml:"base_delay"`
	JitterMax       time.Duration `mapstructure:"jitter_max"        yaml:"jitter_max"`
	Timeout         time.Duration `mapstructure:"timeout"           yaml:"timeout"`
	PolitenessDelay time.Duration `mapstructure:"politeness_delay"  yaml:"politeness_delay"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	UserAgent       string        `mapstructure:"user_agent"        yaml:"user_agent"`
}

// RenderConfig controls the rendering fallback chain.
type RenderConfig struct {
	// BrowserEnabled gates the headless stage. When false the chain goes
	// straight from plain fetch to the text proxy.
	BrowserEnabled bool          `mapstructure:"browser_enabled" yaml:"browser_enabled"`
	BrowserWait    time.Duration `mapstructure:"browser_wait"    yaml:"browser_wait"`
	MinContentLen  int           `mapstructure:"min_content_len" yaml:"min_content_len"`
	ProxyURL       string        `mapstructure:"proxy_url"       yaml:"proxy_url"`
}

// ExtractConfig controls article and section extraction.
type ExtractConfig struct {
	MaxSections     int `mapstructure:"max_sections"      yaml:"max_sections"`
	SectionMinChars int `mapstructure:"section_min_chars" yaml:"section_min_chars"`
	CardMinChars    int `mapstructure:"card_min_chars"    yaml:"card_min_chars"`
	WholePageMin    int `mapstructure:"whole_page_min"    yaml:"whole_page_min"`
	ArticleMinChars int `mapstructure:"article_min_chars" yaml:"article_min_chars"`
	MaxLinks        int `mapstructure:"max_links"         yaml:"max_links"`
}

// LeagueConfig controls standings/fixtures ingestion and matchup scoring.
type LeagueConfig struct {
	StandingsURL string            `mapstructure:"standings_url" yaml:"standings_url"`
	FixturesURL  string            `mapstructure:"fixtures_url"  yaml:"fixtures_url"`
	PricesURL    string            `mapstructure:"prices_url"    yaml:"prices_url"`
	ReviewURL    string            `mapstructure:"review_url"    yaml:"review_url"`
	LeagueTags   map[string]string `mapstructure:"league_tags"   yaml:"league_tags"`
	Rivalries    []types.Rivalry   `mapstructure:"rivalries"     yaml:"rivalries"`
	Scoring      ScoringConfig     `mapstructure:"scoring"       yaml:"scoring"`
}

// ScoringConfig holds the drama-score tunables. The constants are
// editorially tuned, so they stay configurable.
type ScoringConfig struct {
	TopZoneBonus    float64 `mapstructure:"top_zone_bonus"    yaml:"top_zone_bonus"`
	BottomZoneBonus float64 `mapstructure:"bottom_zone_bonus" yaml:"bottom_zone_bonus"`
	RivalryBonus    float64 `mapstructure:"rivalry_bonus"     yaml:"rivalry_bonus"`
	ScoreDivisor    float64 `mapstructure:"score_divisor"     yaml:"score_divisor"`
	TopZoneSize     int     `mapstructure:"top_zone_size"     yaml:"top_zone_size"`
	BottomZoneSize  int     `mapstructure:"bottom_zone_size"  yaml:"bottom_zone_size"`
	MaxPicks        int     `mapstructure:"max_picks"         yaml:"max_picks"`
}

// FPLConfig controls the bootstrap-static client.
type FPLConfig struct {
	BootstrapURL string        `mapstructure:"bootstrap_url" yaml:"bootstrap_url"`
	Timeout      time.Duration `mapstructure:"timeout"       yaml:"timeout"`
}

// TimeOfDay is one wall-clock firing time for a multi-daily job.
type TimeOfDay struct {
	Hour   int `mapstructure:"hour"   yaml:"hour"`
	Minute int `mapstructure:"minute" yaml:"minute"`
}

// ScheduleConfig holds the recurring job times. All times are wall clock in
// Timezone and survive DST transitions by recomputation after every fire.
type ScheduleConfig struct {
	Timezone      string          `mapstructure:"timezone"       yaml:"timezone"`
	ReviewWeekday int             `mapstructure:"review_weekday" yaml:"review_weekday"`
	ReviewHour    int             `mapstructure:"review_hour"    yaml:"review_hour"`
	ReviewMinute  int             `mapstructure:"review_minute"  yaml:"review_minute"`
	MatchupHour   int             `mapstructure:"matchup_hour"   yaml:"matchup_hour"`
	MatchupMinute int             `mapstructure:"matchup_minute" yaml:"matchup_minute"`
	PriceTimes    []TimeOfDay     `mapstructure:"price_times"    yaml:"price_times"`
	ReminderLead  []time.Duration `mapstructure:"reminder_lead"  yaml:"reminder_lead"`
}

// PublishConfig controls the backend news sink and Discord delivery.
type PublishConfig struct {
	NewsURL          string        `mapstructure:"news_url"          yaml:"news_url"`
	DiscordWebhook   string        `mapstructure:"discord_webhook"   yaml:"discord_webhook"`
	Timeout          time.Duration `mapstructure:"timeout"           yaml:"timeout"`
	SeasonTag        string        `mapstructure:"season_tag"        yaml:"season_tag"`
	PlaceholderImage string        `mapstructure:"placeholder_image" yaml:"placeholder_image"`
	MaxContentChars  int           `mapstructure:"max_content_chars" yaml:"max_content_chars"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Fetcher: FetcherConfig{
			MaxRetries:      4,
			BaseDelay:       350 * time.Millisecond,
			JitterMax:       120 * time.Millisecond,
			Timeout:         15 * time.Second,
			PolitenessDelay: 500 * time.Millisecond,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Render: RenderConfig{
			BrowserEnabled: true,
			BrowserWait:    25 * time.Second,
			MinContentLen:  2000,
			ProxyURL:       "https://r.jina.ai/",
		},
		Extract: ExtractConfig{
			MaxSections:     4,
			SectionMinChars: 600,
			CardMinChars:    80,
			WholePageMin:    300,
			ArticleMinChars: 500,
			MaxLinks:        6,
		},
		League: LeagueConfig{
			LeagueTags: map[string]string{"723566": "Premier"},
			Scoring: ScoringConfig{
				TopZoneBonus:    25,
				BottomZoneBonus: 20,
				RivalryBonus:    100,
				ScoreDivisor:    1000,
				TopZoneSize:     6,
				BottomZoneSize:  4,
				MaxPicks:        3,
			},
		},
		FPL: FPLConfig{
			BootstrapURL: "https://fantasy.premierleague.com/api/bootstrap-static/",
			Timeout:      20 * time.Second,
		},
		Schedule: ScheduleConfig{
			Timezone:      "Europe/London",
			ReviewWeekday: 2, // Tuesday
			ReviewHour:    9,
			ReviewMinute:  30,
			MatchupHour:   12,
			MatchupMinute: 0,
			PriceTimes: []TimeOfDay{
				{Hour: 2, Minute: 5},
				{Hour: 14, Minute: 5},
			},
			ReminderLead: []time.Duration{24 * time.Hour, 1 * time.Hour},
		},
		Publish: PublishConfig{
			Timeout:         20 * time.Second,
			SeasonTag:       "GW-Review-2025/26",
			MaxContentChars: 6000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
