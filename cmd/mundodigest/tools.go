package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rehan-24/fpl-digest/internal/config"
	"github.com/Rehan-24/fpl-digest/internal/extract"
	"github.com/Rehan-24/fpl-digest/internal/fetcher"
	"github.com/Rehan-24/fpl-digest/internal/league"
	"github.com/Rehan-24/fpl-digest/internal/publish"
)

// scrapeCmd extracts a single article from a URL and prints the draft.
func scrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape [url]",
		Short: "Extract one article from a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, chain, ex, cleanup, err := setupPipeline()
			if err != nil {
				return err
			}
			defer cleanup()

			page, err := chain.Render(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}
			draft, err := ex.Article(page.HTML, page.URL)
			if err != nil {
				return fmt.Errorf("extract: %w", err)
			}

			fmt.Printf("Strategy: %s\n", page.Strategy)
			fmt.Printf("Title:    %s\n", draft.Title)
			fmt.Printf("Excerpt:  %s\n", draft.Excerpt)
			fmt.Printf("Image:    %s\n\n", draft.ImageURL)
			fmt.Println(draft.Body)
			return nil
		},
	}
}

// sectionsCmd splits a league page into sections and prints each draft.
func sectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sections [url]",
		Short: "Split a league page into article sections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, chain, ex, cleanup, err := setupPipeline()
			if err != nil {
				return err
			}
			defer cleanup()

			page, err := chain.Render(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}
			drafts, err := ex.LeagueSections(page.HTML, page.URL)
			if err != nil {
				return fmt.Errorf("split: %w", err)
			}

			tag := publish.LeagueTag(args[0], cfg.League.LeagueTags)
			for i, d := range drafts {
				fmt.Printf("── Section %d [%s] ──\n", i+1, tag)
				fmt.Printf("Title:   %s\n", d.Title)
				fmt.Printf("Excerpt: %s\n\n", d.Excerpt)
			}
			fmt.Printf("%d section(s)\n", len(drafts))
			return nil
		},
	}
}

// linksCmd harvests scored article links from a hub page.
func linksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "links [url]",
		Short: "Harvest article links from a hub page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, chain, ex, cleanup, err := setupPipeline()
			if err != nil {
				return err
			}
			defer cleanup()

			page, err := chain.Render(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}
			links, err := ex.Links(page.HTML, page.URL, cfg.Extract.MaxLinks)
			if err != nil {
				return fmt.Errorf("harvest: %w", err)
			}
			for _, l := range links {
				fmt.Println(l)
			}
			return nil
		},
	}
}

// matchupsCmd prints the most dramatic matchups from a standings feed.
func matchupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "matchups [standings-url]",
		Short: "Pick the most dramatic matchups from league standings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.Logging)
			url := cfg.League.StandingsURL
			if len(args) > 0 {
				url = args[0]
			}
			if url == "" {
				return fmt.Errorf("no standings URL given or configured")
			}

			client := fetcher.NewClient(cfg, logger)
			defer client.Close()

			resp, err := client.Get(context.Background(), url)
			if err != nil {
				return fmt.Errorf("fetch standings: %w", err)
			}
			rows, err := league.DecodeRows(resp.Body)
			if err != nil {
				rows, err = league.ParseStandingsTable(string(resp.Body))
				if err != nil {
					return fmt.Errorf("decode standings: %w", err)
				}
			}

			teams := league.NormalizeStandings(rows)
			tag := publish.LeagueTag(url, cfg.League.LeagueTags)
			picks := league.NewSelector(&cfg.League, logger).Select(teams, nil, tag)
			if len(picks) == 0 {
				fmt.Println("no matchups to highlight")
				return nil
			}
			for _, p := range picks {
				fmt.Printf("%s — %s\n", p.Label, p.Reason)
			}
			return nil
		},
	}
}

// pricesCmd classifies a price-change feed into risers and fallers.
func pricesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prices [url]",
		Short: "Classify a price-change feed into risers and fallers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.Logging)
			url := cfg.League.PricesURL
			if len(args) > 0 {
				url = args[0]
			}
			if url == "" {
				return fmt.Errorf("no prices URL given or configured")
			}

			client := fetcher.NewClient(cfg, logger)
			defer client.Close()

			resp, err := client.Get(context.Background(), url)
			if err != nil {
				return fmt.Errorf("fetch prices: %w", err)
			}
			rows, err := league.DecodeRows(resp.Body)
			if err != nil {
				return fmt.Errorf("decode prices: %w", err)
			}

			risers, fallers := league.ClassifyPriceChanges(league.NormalizePriceRows(rows))
			for _, r := range risers {
				fmt.Printf("↑ %s (%s) £%.1fm\n", r.Name, r.Team, r.Price)
			}
			for _, f := range fallers {
				fmt.Printf("↓ %s (%s) £%.1fm\n", f.Name, f.Team, f.Price)
			}
			fmt.Printf("%d riser(s), %d faller(s)\n", len(risers), len(fallers))
			return nil
		},
	}
}

// setupPipeline builds the render chain and extractor that the one-shot
// commands share.
func setupPipeline() (*config.Config, *fetcher.RenderChain, *extract.Extractor, func(), error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := setupLogger(cfg.Logging)

	client := fetcher.NewClient(cfg, logger)
	chain := fetcher.NewRenderChain(cfg, client, logger)
	ex := extract.New(&cfg.Extract, logger)

	cleanup := func() {
		chain.Close()
		client.Close()
	}
	return cfg, chain, ex, cleanup, nil
}
