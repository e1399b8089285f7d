package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/newsgoat/internal/classify"
	"github.com/IshaanNene/newsgoat/internal/config"
	"github.com/IshaanNene/newsgoat/internal/crawler"
	"github.com/IshaanNene/newsgoat/internal/extract"
	"github.com/IshaanNene/newsgoat/internal/observability"
	"github.com/IshaanNene/newsgoat/internal/pipeline"
	"github.com/IshaanNene/newsgoat/internal/storage"
)

type scrapeFlags struct {
	output          string
	format          string
	mode            string
	browserType     string
	concurrency     int
	headless        bool
	maxStaleRetries int
}

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	var f scrapeFlags
	cmd := &cobra.Command{
		Use:   "scrape [url...]",
		Short: "Run a scrape session",
		Long: `Run a scrape session over the given article URLs. Without arguments the
links are harvested from the listing page (crawl.listing_url).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScrape(cmd, args, &f)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file path")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "output format: csv, json, jsonl, mongo (comma separated)")
	cmd.Flags().StringVar(&f.mode, "mode", "", "write mode: overwrite, append")
	cmd.Flags().StringVar(&f.browserType, "browser", "", "browser: rod, static")
	cmd.Flags().IntVarP(&f.concurrency, "concurrency", "n", 0, "number of concurrent tabs")
	cmd.Flags().BoolVar(&f.headless, "headless", true, "run the browser headless")
	cmd.Flags().IntVar(&f.maxStaleRetries, "max-stale-retries", -1, "retries per URL after stale pages (0 = unbounded, -1 = config default)")

	return cmd
}

func runScrape(cmd *cobra.Command, args []string, f *scrapeFlags) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyScrapeOverrides(cmd, cfg, f)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, closeLog, err := setupLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()

	sessionID := uuid.NewString()
	logger = logger.With("session", sessionID)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(logger)
	if cfg.Metrics.Enabled {
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metrics.Shutdown(sctx)
		}()
	}

	b, err := newBrowser(cfg, logger)
	if err != nil {
		return fmt.Errorf("create browser: %w", err)
	}
	defer b.Close()

	sink, err := storage.New(cfg, sessionID, logger)
	if err != nil {
		return fmt.Errorf("create sink: %w", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Error("sink close failed", "error", err)
		}
	}()

	seeds := args
	if len(seeds) == 0 {
		listing, err := crawler.OpenListing(ctx, cfg, b, logger)
		if err != nil {
			return err
		}
		defer listing.Close()

		seeds, err = listing.Links(ctx)
		if err != nil {
			return err
		}
	}

	logger.Info("starting scrape",
		"seeds", len(seeds),
		"browser", cfg.Browser.Type,
		"concurrency", cfg.Crawl.Concurrency,
		"sink", sink.Name(),
	)

	ctrl := crawler.New(cfg, b,
		classify.New(classify.RulesFromConfig(cfg.Pages)),
		extract.DefaultRegistry(cfg.Selectors, logger),
		sink,
		crawler.WithLogger(logger),
		crawler.WithSessionID(sessionID),
		crawler.WithMetrics(metrics),
		crawler.WithPipeline(pipeline.Default(logger)),
	)

	report, err := ctrl.Run(ctx, seeds)
	if report != nil {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out)
		report.Render(out)
		fmt.Fprintf(out, "\nScrape finished in %s, output: %s\n", report.Elapsed.Round(time.Millisecond), describeOutput(cfg))
	}

	if errors.Is(err, context.Canceled) {
		logger.Warn("scrape interrupted; records gathered so far were kept")
		return nil
	}
	return err
}

// applyScrapeOverrides applies command-line flag values to the config.
func applyScrapeOverrides(cmd *cobra.Command, cfg *config.Config, f *scrapeFlags) {
	if f.output != "" {
		cfg.Storage.OutputPath = f.output
	}
	if f.format != "" {
		cfg.Storage.Type = strings.ToLower(f.format)
	}
	if f.mode != "" {
		cfg.Storage.Mode = strings.ToLower(f.mode)
	}
	if f.browserType != "" {
		cfg.Browser.Type = strings.ToLower(f.browserType)
	}
	if f.concurrency > 0 {
		cfg.Crawl.Concurrency = f.concurrency
	}
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = f.headless
	}
	if f.maxStaleRetries >= 0 {
		cfg.Crawl.MaxStaleRetries = f.maxStaleRetries
	}
}

func describeOutput(cfg *config.Config) string {
	var parts []string
	for _, kind := range config.SinkTypes(cfg.Storage.Type) {
		if kind == "mongo" {
			parts = append(parts, fmt.Sprintf("mongo %s.%s", cfg.Storage.Mongo.Database, cfg.Storage.Mongo.Collection))
			continue
		}
		parts = append(parts, strings.TrimSuffix(cfg.Storage.OutputPath, filepath.Ext(cfg.Storage.OutputPath))+"."+kind)
	}
	return strings.Join(parts, ", ")
}
