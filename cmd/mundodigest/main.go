package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Rehan-24/fpl-digest/internal/config"
	"github.com/Rehan-24/fpl-digest/internal/digest"
	"github.com/Rehan-24/fpl-digest/internal/fetcher"
	"github.com/Rehan-24/fpl-digest/internal/fpl"
	"github.com/Rehan-24/fpl-digest/internal/publish"
	"github.com/Rehan-24/fpl-digest/internal/schedule"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mundodigest",
		Short: "mundodigest is an FPL mini-league article digest and scheduler",
		Long: `mundodigest turns fplmundo league pages and the FPL API into a running
digest: it renders anti-bot article pages, extracts readable drafts, splits
league roundups into sections, highlights dramatic matchups, tracks price
changes, and posts deadline reminders on a DST-safe schedule.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(sectionsCmd())
	rootCmd.AddCommand(linksCmd())
	rootCmd.AddCommand(matchupsCmd())
	rootCmd.AddCommand(pricesCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runCmd creates the "run" subcommand: the long-running scheduled digest.
func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scheduled digest",
		Long:  "Start the scheduler and serve the weekly review, matchup, price, and deadline-reminder jobs until interrupted.",
		RunE:  runDigest,
	}
}

func runDigest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := setupLogger(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := fetcher.NewClient(cfg, logger)
	defer client.Close()
	chain := fetcher.NewRenderChain(cfg, client, logger)
	defer chain.Close()

	bootstrap := fpl.NewClient(client, cfg.FPL, logger)
	news := publish.NewHTTPNewsSink(cfg.Publish, logger)
	discord := publish.NewWebhookSink(cfg.Publish, logger)
	sched := schedule.New(schedule.NewRealClock(), logger)

	d := digest.New(cfg, client, chain, bootstrap, news, discord, sched, logger)
	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("start digest: %w", err)
	}

	logger.Info("digest running",
		"timezone", cfg.Schedule.Timezone,
		"jobs", len(sched.Jobs()),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down...", "signal", sig)

	sched.CancelAll()
	cancel()
	return nil
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mundodigest %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Fetcher:\n")
			fmt.Printf("  Max Retries:       %d\n", cfg.Fetcher.MaxRetries)
			fmt.Printf("  Base Delay:        %s\n", cfg.Fetcher.BaseDelay)
			fmt.Printf("  Timeout:           %s\n", cfg.Fetcher.Timeout)
			fmt.Printf("  Politeness Delay:  %s\n", cfg.Fetcher.PolitenessDelay)
			fmt.Printf("\nRender:\n")
			fmt.Printf("  Browser Enabled:   %v\n", cfg.Render.BrowserEnabled)
			fmt.Printf("  Browser Wait:      %s\n", cfg.Render.BrowserWait)
			fmt.Printf("  Min Content Len:   %d\n", cfg.Render.MinContentLen)
			fmt.Printf("  Proxy URL:         %s\n", cfg.Render.ProxyURL)
			fmt.Printf("\nExtract:\n")
			fmt.Printf("  Max Sections:      %d\n", cfg.Extract.MaxSections)
			fmt.Printf("  Section Min Chars: %d\n", cfg.Extract.SectionMinChars)
			fmt.Printf("  Max Links:         %d\n", cfg.Extract.MaxLinks)
			fmt.Printf("\nSchedule:\n")
			fmt.Printf("  Timezone:          %s\n", cfg.Schedule.Timezone)
			fmt.Printf("  Review:            weekday %d %02d:%02d\n",
				cfg.Schedule.ReviewWeekday, cfg.Schedule.ReviewHour, cfg.Schedule.ReviewMinute)
			fmt.Printf("  Price Polls:       %d per day\n", len(cfg.Schedule.PriceTimes))
			fmt.Printf("  Reminder Leads:    %v\n", cfg.Schedule.ReminderLead)
			fmt.Printf("\nPublish:\n")
			fmt.Printf("  Season Tag:        %s\n", cfg.Publish.SeasonTag)
			fmt.Printf("  Max Content Chars: %d\n", cfg.Publish.MaxContentChars)
			return nil
		},
	}
}

// setupLogger creates a structured logger from the logging config. The -v
// flag forces debug regardless of the configured level.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	return slog.New(newLogHandler(os.Stderr, cfg, verbose))
}

func newLogHandler(w io.Writer, cfg config.LoggingConfig, debug bool) slog.Handler {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if strings.EqualFold(cfg.Format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
