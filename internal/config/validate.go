package config

import (
	"fmt"
	"net/url"
	"time"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Fetcher.MaxRetries < 0 {
		return fmt.Errorf("fetcher.max_retries must be >= 0, got %d", cfg.Fetcher.MaxRetries)
	}
	if cfg.Fetcher.BaseDelay <= 0 {
		return fmt.Errorf("fetcher.base_delay must be > 0")
	}
	if cfg.Fetcher.Timeout <= 0 {
		return fmt.Errorf("fetcher.timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}

	if cfg.Render.BrowserWait <= 0 {
		return fmt.Errorf("render.browser_wait must be > 0")
	}
	if cfg.Render.MinContentLen < 0 {
		return fmt.Errorf("render.min_content_len must be >= 0")
	}
	if cfg.Render.ProxyURL != "" {
		if _, err := url.Parse(cfg.Render.ProxyURL); err != nil {
			return fmt.Errorf("invalid render.proxy_url %q: %w", cfg.Render.ProxyURL, err)
		}
	}

	if cfg.Extract.MaxSections < 1 {
		return fmt.Errorf("extract.max_sections must be >= 1, got %d", cfg.Extract.MaxSections)
	}
	if cfg.Extract.SectionMinChars < 0 {
		return fmt.Errorf("extract.section_min_chars must be >= 0")
	}
	if cfg.Extract.CardMinChars < 0 {
		return fmt.Errorf("extract.card_min_chars must be >= 0")
	}
	if cfg.Extract.MaxLinks < 1 {
		return fmt.Errorf("extract.max_links must be >= 1, got %d", cfg.Extract.MaxLinks)
	}

	if cfg.League.Scoring.MaxPicks < 1 {
		return fmt.Errorf("league.scoring.max_picks must be >= 1, got %d", cfg.League.Scoring.MaxPicks)
	}
	if cfg.League.Scoring.ScoreDivisor <= 0 {
		return fmt.Errorf("league.scoring.score_divisor must be > 0")
	}
	for i, r := range cfg.League.Rivalries {
		if r.A == "" || r.B == "" {
			return fmt.Errorf("league.rivalries[%d] needs both sides, got a=%q b=%q", i, r.A, r.B)
		}
	}

	if _, err := time.LoadLocation(cfg.Schedule.Timezone); err != nil {
		return fmt.Errorf("invalid schedule.timezone %q: %w", cfg.Schedule.Timezone, err)
	}
	if cfg.Schedule.ReviewWeekday < 0 || cfg.Schedule.ReviewWeekday > 6 {
		return fmt.Errorf("schedule.review_weekday must be 0-6, got %d", cfg.Schedule.ReviewWeekday)
	}
	if err := validateTime(cfg.Schedule.ReviewHour, cfg.Schedule.ReviewMinute, "schedule.review"); err != nil {
		return err
	}
	if err := validateTime(cfg.Schedule.MatchupHour, cfg.Schedule.MatchupMinute, "schedule.matchup"); err != nil {
		return err
	}
	for i, t := range cfg.Schedule.PriceTimes {
		if err := validateTime(t.Hour, t.Minute, fmt.Sprintf("schedule.price_times[%d]", i)); err != nil {
			return err
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

func validateTime(hour, minute int, field string) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("%s hour must be 0-23, got %d", field, hour)
	}
	if minute < 0 || minute > 59 {
		return fmt.Errorf("%s minute must be 0-59, got %d", field, minute)
	}
	return nil
}

// ValidateURL checks if a URL string is usable as a scrape target.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
