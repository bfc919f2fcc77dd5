package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/seoprobe/internal/config"
	"github.com/nao1215/seoprobe/internal/model"
	"github.com/nao1215/seoprobe/internal/pipeline"
	"github.com/nao1215/seoprobe/internal/urlnorm"
)

// NewRobotsCmd creates the robots command.
func NewRobotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "robots [url]",
		Short: "Show the robots.txt decision for a page",
		Long: `Robots fetches the robots.txt of the URL's origin and shows whether the
URL's path is allowed for the '*' group, which rule decided it, whether a
named crawler may fetch it, and the sitemaps robots.txt declares.

Examples:
  seoprobe robots https://example.com/private/page
  seoprobe robots --robots-agent Bingbot --json https://example.com/`,
		Args: cobra.ExactArgs(1),
		RunE: runRobotsCmd,
	}

	addHTTPFlags(cmd)
	cmd.Flags().String("robots-agent", config.DefaultRobotsAgent,
		"Crawler checked in addition to '*' (empty disables)")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")

	return cmd
}

// runRobotsCmd executes the robots command.
func runRobotsCmd(cmd *cobra.Command, args []string) error {
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

	summary, err := checkRobots(ctx, cfg, cfg.Targets[0], logger)
	if err != nil {
		return err
	}

	if cfg.JSONReport {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(summary)
	}
	writeRobotsText(cmd.OutOrStdout(), cfg.Targets[0], summary)
	return nil
}

// checkRobots runs the audit's robots stage alone for target.
func checkRobots(ctx context.Context, cfg *config.Config, target string, logger *slog.Logger) (*model.RobotsSummary, error) {
	normalized, err := urlnorm.Normalize(target, nil)
	if err != nil {
		return nil, err
	}
	origin, err := urlnorm.Origin(normalized.String())
	if err != nil {
		return nil, err
	}
	prober, err := newProber(cfg, target, logger)
	if err != nil {
		return nil, err
	}

	audit := pipeline.NewAudit(normalized.String())
	audit.Report.Origin = origin
	if err := pipeline.NewRobotsStep(prober, cfg.RobotsAgent, logger).Do(ctx, audit); err != nil {
		return nil, err
	}
	return &audit.Report.Robots, nil
}

// writeRobotsText prints summary for people.
func writeRobotsText(w io.Writer, target string, s *model.RobotsSummary) {
	fmt.Fprintf(w, "URL:       %s\n", target)
	switch {
	case s.Error != "":
		fmt.Fprintf(w, "robots.txt: unavailable (%s)\n", s.Error)
	case !s.Fetched:
		fmt.Fprintf(w, "robots.txt: not found (status %d)\n", s.Status)
	default:
		fmt.Fprintf(w, "robots.txt: found (status %d)\n", s.Status)
	}

	decision := s.Decision
	if s.MatchedRule != "" {
		decision += " by \"" + s.MatchedRule + "\""
	}
	fmt.Fprintf(w, "Decision:  %s\n", decision)

	if s.Agent != "" && s.AgentAllowed != nil {
		fmt.Fprintf(w, "%s: %s\n", s.Agent, allowedWord(*s.AgentAllowed))
	}

	if len(s.Sitemaps) > 0 {
		fmt.Fprintln(w, "Sitemaps:")
		for _, sm := range s.Sitemaps {
			fmt.Fprintf(w, "  - %s\n", sm)
		}
	}
}

func allowedWord(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "disallowed"
}
