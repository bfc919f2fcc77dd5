package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/seoprobe/internal/config"
	applog "github.com/nao1215/seoprobe/internal/log"
	"github.com/nao1215/seoprobe/internal/pipeline"
	"github.com/nao1215/seoprobe/internal/probe"
)

// addHTTPFlags registers the flags shared by every command that talks to
// the audited site.
func addHTTPFlags(cmd *cobra.Command) {
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().Int("retries", config.DefaultMaxRetries,
		"Retries after a network failure (0 or 1)")
	cmd.Flags().IntP("concurrency", "C", config.DefaultConcurrency,
		"Maximum concurrent requests per audit stage")
	cmd.Flags().StringP("user-agent", "A", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address (host:port)")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body bytes read per document")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .seoprobe in current or home directory)")
}

// addAuditFlags registers the audit tuning flags.
func addAuditFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("audit-timeout", config.DefaultAuditTimeout,
		"Deadline for one whole audit (0 disables it)")
	cmd.Flags().Int("sitemap-max-files", config.DefaultSitemapMaxFiles,
		"Maximum sitemap documents fetched")
	cmd.Flags().Int("sitemap-max-urls", config.DefaultSitemapMaxURLs,
		"Maximum sitemap URLs collected")
	cmd.Flags().IntP("sample", "s", config.DefaultSampleSize,
		"Number of sitemap pages scanned for links to the audited page")
	cmd.Flags().Int("max-assets", config.DefaultMaxAssets,
		"Maximum page assets probed")
	cmd.Flags().String("robots-agent", config.DefaultRobotsAgent,
		"Crawler checked against robots.txt in addition to '*' (empty disables)")
}

// addReportFlags registers the report format flags.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// buildConfig creates a Config from the flags the command defines.
// Flags a command does not register keep their defaults.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := flagReader{cmd: cmd}

	flags.durationFlag("timeout", &cfg.Timeout)
	flags.durationFlag("audit-timeout", &cfg.AuditTimeout)
	flags.intFlag("retries", &cfg.MaxRetries)
	flags.intFlag("concurrency", &cfg.Concurrency)
	flags.stringFlag("user-agent", &cfg.UserAgent)
	flags.stringFlag("proxy", &cfg.ProxyAddress)
	flags.int64Flag("max-body-size", &cfg.MaxBodySize)
	flags.intFlag("sitemap-max-files", &cfg.SitemapMaxFiles)
	flags.intFlag("sitemap-max-urls", &cfg.SitemapMaxURLs)
	flags.intFlag("sample", &cfg.SampleSize)
	flags.intFlag("max-assets", &cfg.MaxAssets)
	flags.stringFlag("robots-agent", &cfg.RobotsAgent)
	flags.intFlag("batch", &cfg.BatchSize)
	flags.boolFlag("json", &cfg.JSONReport)
	flags.boolFlag("markdown", &cfg.MarkdownReport)
	flags.stringFlag("output", &cfg.ReportFile)
	flags.boolFlag("save", &cfg.SaveToDB)
	flags.stringFlag("db-dir", &cfg.DBDir)
	flags.stringFlag("listen", &cfg.ListenAddress)
	flags.stringFlag("config", &cfg.ConfigFilePath)
	cfg.Verbose = getVerboseFlag(cmd)
	if flags.err != nil {
		return nil, flags.err
	}

	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	siteConfigs, err := loadSiteConfigs(cfg.ConfigFilePath)
	if err != nil {
		return nil, err
	}
	cfg.SiteConfigs = siteConfigs
	cfg.Targets = args

	return cfg, nil
}

// flagReader reads optional flags and keeps the first error.
type flagReader struct {
	cmd *cobra.Command
	err error
}

func (r *flagReader) defined(name string) bool {
	return r.err == nil && r.cmd.Flags().Lookup(name) != nil
}

func (r *flagReader) intFlag(name string, dst *int) {
	if r.defined(name) {
		*dst, r.err = r.cmd.Flags().GetInt(name)
	}
}

func (r *flagReader) int64Flag(name string, dst *int64) {
	if r.defined(name) {
		*dst, r.err = r.cmd.Flags().GetInt64(name)
	}
}

func (r *flagReader) stringFlag(name string, dst *string) {
	if r.defined(name) {
		*dst, r.err = r.cmd.Flags().GetString(name)
	}
}

func (r *flagReader) boolFlag(name string, dst *bool) {
	if r.defined(name) {
		*dst, r.err = r.cmd.Flags().GetBool(name)
	}
}

func (r *flagReader) durationFlag(name string, dst *time.Duration) {
	if r.defined(name) {
		*dst, r.err = r.cmd.Flags().GetDuration(name)
	}
}

// loadSiteConfigs loads the configuration file. An explicitly given path
// must exist; without one a missing file yields an empty configuration.
func loadSiteConfigs(explicitPath string) (*config.File, error) {
	path := config.FindConfigFile(explicitPath)
	switch {
	case path != "":
		siteConfigs, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		return siteConfigs, nil
	case explicitPath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, explicitPath)
	default:
		return &config.File{Sites: make(map[string]config.SiteConfig)}, nil
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the redacting logger used by every command.
func setupLogger(verbose bool) *slog.Logger {
	return newLogger(os.Stderr, verbose, false)
}

// newLogger creates a redacting logger writing text, or JSON lines when
// jsonFormat is set.
func newLogger(w io.Writer, verbose, jsonFormat bool) *slog.Logger {
	if jsonFormat {
		return applog.NewSecureJSONLogger(w, verbose)
	}
	return applog.NewSecureLogger(w, verbose)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newProber creates a prober carrying target's per-site headers.
func newProber(cfg *config.Config, target string, logger *slog.Logger) (*probe.Prober, error) {
	p, err := probe.New(cfg.ProbeConfig(target), probe.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create prober: %w", err)
	}
	return p, nil
}

// pipelineOptions returns the touchpoints pipeline settings for target,
// with its per-site overrides applied.
func pipelineOptions(cfg *config.Config, target string, logger *slog.Logger) []pipeline.DefaultPipelineOption {
	site := cfg.Site(target)

	sampleSize := cfg.SampleSize
	if site.SampleSize > 0 {
		sampleSize = site.SampleSize
	}
	maxAssets := cfg.MaxAssets
	if site.MaxAssets > 0 {
		maxAssets = site.MaxAssets
	}

	return []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineConcurrency(cfg.Concurrency),
		pipeline.WithPipelineSitemapBounds(cfg.SitemapMaxFiles, cfg.SitemapMaxURLs),
		pipeline.WithPipelineSampleSize(sampleSize),
		pipeline.WithPipelineIgnorePatterns(site.IgnorePatterns),
		pipeline.WithPipelineMaxAssets(maxAssets),
		pipeline.WithPipelineRobotsAgent(cfg.RobotsAgent),
		pipeline.WithPipelineLogger(logger),
	}
}

// newAuditPipeline builds the touchpoints pipeline for target.
func newAuditPipeline(cfg *config.Config, target string, logger *slog.Logger) (*pipeline.Pipeline, error) {
	prober, err := newProber(cfg, target, logger)
	if err != nil {
		return nil, err
	}
	return pipeline.DefaultPipeline(prober,
		[]pipeline.Option{pipeline.WithTimeout(cfg.AuditTimeout)},
		pipelineOptions(cfg, target, logger)...,
	), nil
}

// openOutput returns the report destination: path when set, stdout
// otherwise. The returned close function is always non-nil.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports may quote URLs carrying credentials.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // path is user-supplied on purpose
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}
