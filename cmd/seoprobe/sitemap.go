package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/seoprobe/internal/pipeline"
	"github.com/nao1215/seoprobe/internal/report"
	"github.com/nao1215/seoprobe/internal/sitemap"
)

// NewSitemapCmd creates the sitemap command.
func NewSitemapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitemap [url]",
		Short: "Discover and list the sitemap URLs of a site",
		Long: `Sitemap finds the sitemaps of the URL's origin and lists the URLs they
declare.

Candidates are the Sitemap: lines of robots.txt followed by /sitemap.xml
and /sitemap_index.xml. Sitemap indexes are followed one level deep and
gzip-compressed sitemaps are decompressed. Documents that cannot be used
are listed as skipped.

Examples:
  # List up to 100 URLs
  seoprobe sitemap --limit 100 https://example.com/

  # JSON output
  seoprobe sitemap --json https://example.com/`,
		Args: cobra.ExactArgs(1),
		RunE: runSitemapCmd,
	}

	addHTTPFlags(cmd)
	addReportFlags(cmd)
	cmd.Flags().IntP("limit", "l", sitemap.DefaultMaxURLs,
		"Maximum number of URLs listed")
	cmd.Flags().Int("sitemap-max-files", sitemap.DefaultMaxFiles,
		"Maximum sitemap documents fetched")

	return cmd
}

// runSitemapCmd executes the sitemap command.
func runSitemapCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.ValidateTargets(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signalContext()
	defer stop()

	target := cfg.Targets[0]
	prober, err := newProber(cfg, target, logger)
	if err != nil {
		return err
	}

	discovery, err := pipeline.DiscoverSitemaps(ctx, prober, target, limit, cfg.SitemapMaxFiles,
		sitemap.WithConcurrency(cfg.Concurrency),
		sitemap.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	output, closeOutput, err := openOutput(cfg.ReportFile, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOutput() //nolint:errcheck // write errors surface through the writer

	writer, err := report.NewWriter(report.SelectFormat(cfg.JSONReport, cfg.MarkdownReport), output, getVersion())
	if err != nil {
		return err
	}
	_, err = writer.WriteDiscovery(discovery)
	return err
}
