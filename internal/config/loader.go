package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults from struct
	setDefaults(v, cfg)

	// Environment variable support
	v.SetEnvPrefix("MUNDO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Search default locations
		v.SetConfigName("mundodigest")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".mundodigest"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("fetcher.max_retries", cfg.Fetcher.MaxRetries)
	v.SetDefault("fetcher.base_delay", cfg.Fetcher.BaseDelay)
	v.SetDefault("fetcher.jitter_max", cfg.Fetcher.JitterMax)
	v.SetDefault("fetcher.timeout", cfg.Fetcher.Timeout)
	v.SetDefault("fetcher.politeness_delay", cfg.Fetcher.PolitenessDelay)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.user_agent", cfg.Fetcher.UserAgent)

	v.SetDefault("render.browser_enabled", cfg.Render.BrowserEnabled)
	v.SetDefault("render.browser_wait", cfg.Render.BrowserWait)
	v.SetDefault("render.min_content_len", cfg.Render.MinContentLen)
	v.SetDefault("render.proxy_url", cfg.Render.ProxyURL)

	v.SetDefault("extract.max_sections", cfg.Extract.MaxSections)
	v.SetDefault("extract.section_min_chars", cfg.Extract.SectionMinChars)
	v.SetDefault("extract.card_min_chars", cfg.Extract.CardMinChars)
	v.SetDefault("extract.whole_page_min", cfg.Extract.WholePageMin)
	v.SetDefault("extract.article_min_chars", cfg.Extract.ArticleMinChars)
	v.SetDefault("extract.max_links", cfg.Extract.MaxLinks)

	v.SetDefault("league.scoring.top_zone_bonus", cfg.League.Scoring.TopZoneBonus)
	v.SetDefault("league.scoring.bottom_zone_bonus", cfg.League.Scoring.BottomZoneBonus)
	v.SetDefault("league.scoring.rivalry_bonus", cfg.League.Scoring.RivalryBonus)
	v.SetDefault("league.scoring.score_divisor", cfg.League.Scoring.ScoreDivisor)
	v.SetDefault("league.scoring.top_zone_size", cfg.League.Scoring.TopZoneSize)
	v.SetDefault("league.scoring.bottom_zone_size", cfg.League.Scoring.BottomZoneSize)
	v.SetDefault("league.scoring.max_picks", cfg.League.Scoring.MaxPicks)

	v.SetDefault("fpl.bootstrap_url", cfg.FPL.BootstrapURL)
	v.SetDefault("fpl.timeout", cfg.FPL.Timeout)

	v.SetDefault("schedule.timezone", cfg.Schedule.Timezone)
	v.SetDefault("schedule.review_weekday", cfg.Schedule.ReviewWeekday)
	v.SetDefault("schedule.review_hour", cfg.Schedule.ReviewHour)
	v.SetDefault("schedule.review_minute", cfg.Schedule.ReviewMinute)
	v.SetDefault("schedule.matchup_hour", cfg.Schedule.MatchupHour)
	v.SetDefault("schedule.matchup_minute", cfg.Schedule.MatchupMinute)

	v.SetDefault("publish.timeout", cfg.Publish.Timeout)
	v.SetDefault("publish.season_tag", cfg.Publish.SeasonTag)
	v.SetDefault("publish.max_content_chars", cfg.Publish.MaxContentChars)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}
