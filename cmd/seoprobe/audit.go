package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/seoprobe/internal/config"
	"github.com/nao1215/seoprobe/internal/database"
	"github.com/nao1215/seoprobe/internal/model"
	"github.com/nao1215/seoprobe/internal/pipeline"
	"github.com/nao1215/seoprobe/internal/report"
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [url]...",
		Short: "Audit the SEO touchpoints of one or more pages",
		Long: `Audit fetches a page and checks how it agrees with the rest of its site:

- noindex directives (meta robots and X-Robots-Tag)
- the robots.txt decision for the page
- whether the page is listed in the site's sitemaps
- canonical, AMP and hreflang pointers and whether their targets point back
- links to the page from a sample of other sitemap pages
- size, caching and render-blocking state of the page's assets

Disagreements, such as a noindex page listed in the sitemap, are reported
as conflicts. Only a page that cannot be fetched at all fails the audit.

Examples:
  # Audit a single page
  seoprobe audit https://example.com/pricing

  # Audit several pages, four at a time
  seoprobe audit -b 4 https://example.com/ https://example.com/blog/

  # Markdown report written to a file
  seoprobe audit -m -o reports/pricing.md https://example.com/pricing

  # Keep the report in the history database
  seoprobe audit --save https://example.com/pricing

Configuration file (.seoprobe) example:
  sites:
    staging.example.com:
      cookie: "session=abc123"
      headers:
        Authorization: "Basic dXNlcjpwYXNz"
      ignorePatterns:
        - "/tag/*"`,
		Args: cobra.ArbitraryArgs,
		RunE: runAuditCmd,
	}

	addHTTPFlags(cmd)
	addAuditFlags(cmd)
	addReportFlags(cmd)

	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent audits")
	cmd.Flags().Bool("save", false,
		"Save reports to the history database")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, args []string) error {
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

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signalContext()
	defer stop()

	return runAudit(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, logger)
}

// auditRun holds what every finished audit is handed to.
type auditRun struct {
	cfg      *config.Config
	writer   report.Writer
	db       *database.AuditDB
	progress io.Writer
	logger   *slog.Logger

	// mu serializes report output and database writes.
	mu     sync.Mutex
	failed int
}

// runAudit audits every target. Reports go to stdout (or the report file),
// progress goes to stderr. The error reports how many audits failed.
func runAudit(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting audit",
		"targets", len(cfg.Targets),
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	var db *database.AuditDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	output, closeOutput, err := openOutput(cfg.ReportFile, stdout)
	if err != nil {
		return err
	}
	defer closeOutput() //nolint:errcheck // write errors surface through the writer

	writer, err := report.NewWriter(report.SelectFormat(cfg.JSONReport, cfg.MarkdownReport), output, getVersion())
	if err != nil {
		return err
	}

	run := &auditRun{cfg: cfg, writer: writer, db: db, progress: stderr, logger: logger}

	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		err = run.batch(ctx)
	} else {
		err = run.sequential(ctx)
	}
	if err != nil {
		return err
	}

	if run.failed > 0 {
		return fmt.Errorf("%d of %d audits failed", run.failed, len(cfg.Targets))
	}
	return nil
}

// sequential audits targets one at a time.
func (r *auditRun) sequential(ctx context.Context) error {
	for _, target := range r.cfg.Targets {
		if err := ctx.Err(); err != nil {
			return err
		}

		p, err := newAuditPipeline(r.cfg, target, r.logger)
		if err != nil {
			return err
		}

		fmt.Fprintf(r.progress, "Auditing %s...\n", target)
		start := time.Now()

		auditReport, err := p.Run(ctx, target)
		if err != nil {
			r.logger.Error("audit failed", "url", target, "error", err)
			fmt.Fprintf(r.progress, "Audit error for %s: %v\n", target, err)
			r.failed++
		} else {
			fmt.Fprintf(r.progress, "Audit completed in %s\n\n", time.Since(start).Round(time.Millisecond))
		}

		if auditReport != nil {
			r.finish(ctx, auditReport)
		}
	}
	return nil
}

// batch audits targets concurrently. Each audit builds its own prober with
// its site's settings.
func (r *auditRun) batch(ctx context.Context) error {
	total := len(r.cfg.Targets)
	fmt.Fprintf(r.progress, "Starting batch audit of %d URLs (concurrency: %d)...\n\n", total, r.cfg.BatchSize)
	start := time.Now()

	bp := pipeline.NewBatchProcessor(
		func(target string) (*pipeline.Pipeline, error) {
			return newAuditPipeline(r.cfg, target, r.logger)
		},
		pipeline.WithConcurrency(r.cfg.BatchSize),
		pipeline.WithBatchLogger(r.logger),
	)

	var done int
	err := bp.ProcessBatchWithCallback(ctx, r.cfg.Targets, func(auditReport *model.AuditReport, _ int) {
		r.mu.Lock()
		done++
		if auditFailed(auditReport) {
			r.failed++
			fmt.Fprintf(r.progress, "[%d/%d] Audit failed: %s: %s\n", done, total, auditReport.URL, auditReport.Error)
		} else {
			fmt.Fprintf(r.progress, "[%d/%d] Audit completed: %s\n", done, total, auditReport.URL)
		}
		r.mu.Unlock()

		r.finish(ctx, auditReport)
	})

	fmt.Fprintf(r.progress, "\nBatch audit completed in %s\n", time.Since(start).Round(time.Millisecond))
	return err
}

// finish writes the report and saves it when history is enabled.
func (r *auditRun) finish(ctx context.Context, auditReport *model.AuditReport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.writer.Write(auditReport); err != nil {
		r.logger.Error("report failed", "url", auditReport.URL, "error", err)
	}

	if r.db == nil {
		return
	}
	if err := r.db.SaveAuditReport(ctx, auditReport); err != nil {
		r.logger.Error("failed to save audit report", "url", auditReport.URL, "error", err)
		return
	}
	r.logger.Info("audit report saved to database", "url", auditReport.URL)
}

// auditFailed reports whether the audited page was never fetched. Degraded
// reports carry an Error too, but they always record the fetch step.
func auditFailed(r *model.AuditReport) bool {
	return r.Error != "" && len(r.PerformedSteps) == 0
}
