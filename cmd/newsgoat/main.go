package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/IshaanNene/newsgoat/internal/browser"
	"github.com/IshaanNene/newsgoat/internal/classify"
	"github.com/IshaanNene/newsgoat/internal/config"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "newsgoat",
		Short: "NewsGoat extracts BBC News articles and live-blog posts",
		Long: `NewsGoat opens the BBC News homepage in a browser, visits every linked
article and extracts title and body text into a deduplicated dataset.

Standard articles yield one record each; live blogs yield one record per
post. Video and gallery pages are skipped, anything else is reported as
unsupported.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "NewsGoat %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand, which prints the effective
// configuration as YAML.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

// classifyCmd creates the "classify" subcommand.
func classifyCmd() *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "classify <url>",
		Short: "Print the page kind a URL would be handled as",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			c := classify.New(classify.RulesFromConfig(cfg.Pages))
			fmt.Fprintln(cmd.OutOrStdout(), c.Classify(args[0], title))
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "rendered document title")
	return cmd
}

// newBrowser creates the browser selected by browser.type.
func newBrowser(cfg *config.Config, logger *slog.Logger) (browser.Browser, error) {
	switch cfg.Browser.Type {
	case "static":
		return browser.NewStaticBrowser(cfg, logger), nil
	case "rod", "":
		return browser.NewRodBrowser(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown browser type %q", cfg.Browser.Type)
	}
}

// setupLogger creates a structured logger from the logging config. The
// returned closer releases the log file, if one was opened.
func setupLogger(cfg config.LoggingConfig) (*slog.Logger, func() error, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	var (
		w      io.Writer = os.Stderr
		closer           = func() error { return nil }
	)
	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
	case "stdout":
		w = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f.Close
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), closer, nil
}
