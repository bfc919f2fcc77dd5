package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/seoprobe/internal/config"
	"github.com/nao1215/seoprobe/internal/pipeline"
	"github.com/nao1215/seoprobe/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the audit engine over HTTP",
		Long: `Serve exposes sitemap discovery and touchpoints audits as a JSON API.

Routes:
  GET /api/sitemaps?url=<page>&limit=<n>
  GET /api/touchpoints?url=<page>&sample=<n>
  GET /healthz

Every request is audited independently; nothing is stored. Per-site headers
and cookies from the configuration file are applied by host.

Examples:
  seoprobe serve
  seoprobe serve --listen :9000 --audit-timeout 1m`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	addHTTPFlags(cmd)
	addAuditFlags(cmd)
	cmd.Flags().StringP("listen", "L", config.DefaultListenAddress,
		"Address to listen on")
	cmd.Flags().Bool("log-json", false, "Write logs as JSON lines")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	jsonLogs, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg.Verbose, jsonLogs)
	slog.SetDefault(logger)

	ctx, stop := signalContext()
	defer stop()

	srv := newServer(cfg, logger)
	fmt.Fprintf(cmd.ErrOrStderr(), "Listening on http://%s\n", cfg.ListenAddress)
	return srv.ListenAndServe(ctx, cfg.ListenAddress)
}

// newServer wires the HTTP service to cfg.
func newServer(cfg *config.Config, logger *slog.Logger) *server.Server {
	factory := func(rawURL string) (pipeline.Prober, error) {
		p, err := newProber(cfg, rawURL, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	}

	return server.New(factory,
		server.WithLogger(logger),
		server.WithAuditTimeout(cfg.AuditTimeout),
		server.WithMaxLimit(cfg.SitemapMaxURLs),
		server.WithSitemapMaxFiles(cfg.SitemapMaxFiles),
		server.WithPipelineOptions(
			pipeline.WithPipelineConcurrency(cfg.Concurrency),
			pipeline.WithPipelineSitemapBounds(cfg.SitemapMaxFiles, cfg.SitemapMaxURLs),
			pipeline.WithPipelineSampleSize(cfg.SampleSize),
			pipeline.WithPipelineMaxAssets(cfg.MaxAssets),
			pipeline.WithPipelineRobotsAgent(cfg.RobotsAgent),
		),
	)
}
