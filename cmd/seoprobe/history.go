package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/seoprobe/internal/config"
	"github.com/nao1215/seoprobe/internal/database"
	"github.com/nao1215/seoprobe/internal/report"
	"github.com/nao1215/seoprobe/internal/urlnorm"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "Show saved audits and how their conflicts changed",
		Long: `History reads the reports saved with 'seoprobe audit --save'.

For a URL it lists every saved audit, newest first, and compares the
conflicts of the latest two: which are new, which were resolved and which
remain.

Examples:
  # History and conflict changes for a page
  seoprobe history https://example.com/pricing

  # All audited URLs
  seoprobe history --list-urls

  # Print a saved report again, as Markdown
  seoprobe history --show 12 -m`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-urls", "L", false,
		"List every URL in the history database")
	cmd.Flags().Int64P("show", "i", 0,
		"Print the saved report with this ID (see the ID column)")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown (with --show)")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listURLs, err := cmd.Flags().GetBool("list-urls")
	if err != nil {
		return err
	}
	showID, err := cmd.Flags().GetInt64("show")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return config.ErrConflictingReportFormats
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Validate before opening the database.
	var target string
	if !listURLs && showID == 0 {
		if len(args) == 0 {
			return errors.New("a URL is required (use --list-urls to see audited URLs)")
		}
		normalized, err := urlnorm.Normalize(args[0], nil)
		if err != nil {
			return err
		}
		target = normalized.String()
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	switch {
	case listURLs:
		return listAuditedURLs(ctx, out, db, jsonOutput)
	case showID != 0:
		return showReport(ctx, out, db, showID, report.SelectFormat(jsonOutput, markdownOutput))
	default:
		return showHistory(ctx, out, db, target, jsonOutput)
	}
}

func listAuditedURLs(ctx context.Context, out io.Writer, db *database.AuditDB, jsonOutput bool) error {
	urls, err := db.ListAuditedURLs(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(out, urls)
	}
	if len(urls) == 0 {
		fmt.Fprintln(out, "No audits saved yet. Use 'seoprobe audit --save <url>'.")
		return nil
	}
	fmt.Fprintf(out, "Audited URLs (%d):\n\n", len(urls))
	for _, u := range urls {
		fmt.Fprintf(out, "  %s\n", u)
	}
	return nil
}

func showReport(ctx context.Context, out io.Writer, db *database.AuditDB, id int64, format report.Format) error {
	saved, err := db.GetAuditReportByID(ctx, id)
	if err != nil {
		return err
	}
	if saved == nil {
		return fmt.Errorf("no saved report with ID %d", id)
	}
	writer, err := report.NewWriter(format, out, getVersion())
	if err != nil {
		return err
	}
	_, err = writer.Write(saved)
	return err
}

// historyOutput is the JSON shape of a URL's history.
type historyOutput struct {
	URL     string                         `json:"url"`
	Audits  []database.AuditReportMetadata `json:"audits"`
	Changes *database.ConflictDiff         `json:"changes,omitempty"`
}

func showHistory(ctx context.Context, out io.Writer, db *database.AuditDB, target string, jsonOutput bool) error {
	audits, err := db.GetAuditHistory(ctx, target)
	if err != nil {
		return err
	}

	diff, err := db.CompareLatest(ctx, target)
	if err != nil && !errors.Is(err, database.ErrNotEnoughHistory) {
		return err
	}

	if jsonOutput {
		return writeJSON(out, historyOutput{URL: target, Audits: audits, Changes: diff})
	}

	if len(audits) == 0 {
		fmt.Fprintf(out, "No audit history found for %s\n", target)
		fmt.Fprintln(out, "\nUse 'seoprobe audit --save' to record audits of this URL.")
		return nil
	}

	fmt.Fprintf(out, "Audit history for %s (%d audits):\n\n", target, len(audits))
	fmt.Fprintf(out, "  %-6s  %-20s  %-6s  %-8s  %-10s  %s\n", "ID", "Date", "Status", "Noindex", "In sitemap", "Conflicts")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 70))
	for _, a := range audits {
		status := "-"
		if a.Status != 0 {
			status = fmt.Sprint(a.Status)
		}
		conflicts := fmt.Sprint(a.ConflictCount)
		if a.TimedOut {
			conflicts += " (timed out)"
		}
		fmt.Fprintf(out, "  %-6d  %-20s  %-6s  %-8s  %-10s  %s\n",
			a.ID,
			a.Timestamp.Format("2006-01-02 15:04:05"),
			status,
			yesNo(a.Noindex),
			yesNo(a.InSitemap),
			conflicts,
		)
	}

	if diff == nil {
		fmt.Fprintln(out, "\nAt least two audits are needed to compare conflicts.")
		return nil
	}
	writeDiffText(out, diff)
	return nil
}

func writeDiffText(out io.Writer, diff *database.ConflictDiff) {
	fmt.Fprintf(out, "\nConflict changes (%s -> %s):\n",
		diff.PreviousAt.Format("2006-01-02 15:04"),
		diff.CurrentAt.Format("2006-01-02 15:04"),
	)
	if !diff.HasChanges() {
		fmt.Fprintf(out, "  No changes (%d conflicts remain)\n", len(diff.Unchanged))
		return
	}
	for _, c := range diff.New {
		fmt.Fprintf(out, "  + %s\n", c)
	}
	for _, c := range diff.Resolved {
		fmt.Fprintf(out, "  - %s\n", c)
	}
	if len(diff.Unchanged) > 0 {
		fmt.Fprintf(out, "  %d unchanged\n", len(diff.Unchanged))
	}
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
