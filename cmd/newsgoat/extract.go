package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/newsgoat/internal/browser"
	"github.com/IshaanNene/newsgoat/internal/classify"
	"github.com/IshaanNene/newsgoat/internal/config"
	"github.com/IshaanNene/newsgoat/internal/extract"
	"github.com/IshaanNene/newsgoat/internal/types"
)

// extractCmd creates the "extract" subcommand, which runs classification and
// extraction over a saved HTML page without a browser.
func extractCmd() *cobra.Command {
	var (
		file    string
		pageURL string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "extract --file page.html --url URL",
		Short: "Extract records from a saved page",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, closeLog, err := setupLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer closeLog()

			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			page, err := browser.NewStaticPage(pageURL, f)
			if err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
			}

			ctx := context.Background()
			title, err := page.Title(ctx)
			if err != nil {
				return err
			}

			classifier := classify.New(classify.RulesFromConfig(cfg.Pages))
			kind := classifier.Classify(pageURL, title)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "kind: %s\n", kind)

			if classify.Loggable(kind) {
				return nil
			}
			ex, err := extract.DefaultRegistry(cfg.Selectors, logger).Lookup(kind)
			if err != nil {
				return err
			}

			records, err := ex.Extract(ctx, page, extract.Target{URL: pageURL, Title: classifier.TrimTitle(title)})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			renderRecords(cmd, records)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "saved HTML file")
	cmd.Flags().StringVar(&pageURL, "url", "", "URL the page was saved from")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func renderRecords(cmd *cobra.Command, records []types.ArticleRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"#", "Sub-article", "Title", "Description"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: 40},
		{Number: 4, WidthMax: 80},
	})
	for i, rec := range records {
		t.AppendRow(table.Row{i + 1, rec.IsSubArticle, rec.Title, rec.Description})
	}
	t.AppendFooter(table.Row{"", "", "Records", len(records)})
	t.Render()
}
