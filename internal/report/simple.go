package report

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nao1215/seoprobe/internal/model"
)

// lineWidth is the width of the section rules.
const lineWidth = 70

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to report are shown.
	showEmpty bool

	// verbose adds per-check and per-asset detail.
	verbose bool

	printer *message.Printer
	title   cases.Caser
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		printer:    message.NewPrinter(language.English),
		title:      cases.Title(language.English),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the audit report in human-readable format.
func (w *SimpleWriter) Write(report *model.AuditReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeConflicts(&sb, report)
	w.writeIndexability(&sb, report)
	w.writePointers(&sb, report)
	w.writeInlinks(&sb, report)
	w.writeAssets(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteDiscovery outputs the sitemap discovery result.
func (w *SimpleWriter) WriteDiscovery(d *model.SitemapDiscovery) (int, error) {
	var sb strings.Builder

	w.writeTitle(&sb, "SEOPROBE SITEMAP DISCOVERY")
	fmt.Fprintf(&sb, "Origin:    %s\n", d.Origin)
	fmt.Fprintf(&sb, "Sitemaps:  %d\n", len(d.Sitemaps))
	fmt.Fprintf(&sb, "URLs:      %s\n\n", w.printer.Sprintf("%d", d.Count))

	if len(d.Sitemaps) > 0 || w.showEmpty {
		w.writeSection(&sb, "SITEMAPS")
		for _, s := range d.Sitemaps {
			fmt.Fprintf(&sb, "  [+] %s\n", s)
		}
		sb.WriteString("\n")
	}

	if len(d.Skipped) > 0 || w.showEmpty {
		w.writeSection(&sb, "SKIPPED")
		writeSkipped(&sb, d.Skipped)
	}

	if len(d.URLs) > 0 || w.showEmpty {
		w.writeSection(&sb, "URLS")
		for _, u := range d.URLs {
			if u.LastMod != "" {
				fmt.Fprintf(&sb, "  %s  (lastmod %s)\n", u.Loc, u.LastMod)
				continue
			}
			fmt.Fprintf(&sb, "  %s\n", u.Loc)
		}
		sb.WriteString("\n")
	}

	w.writeFooter(&sb)
	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeTitle(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", lineWidth))
	sb.WriteString("\n")
	pad := (lineWidth - len(title)) / 2
	if pad < 0 {
		pad = 0
	}
	sb.WriteString(strings.Repeat(" ", pad))
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", lineWidth))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeSection(sb *strings.Builder, name string) {
	sb.WriteString(strings.Repeat("-", lineWidth))
	sb.WriteString("\n")
	sb.WriteString(name)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", lineWidth))
	sb.WriteString("\n\n")
}

// writeHeader writes the report header with audit information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, r *model.AuditReport) {
	w.writeTitle(sb, "SEOPROBE AUDIT REPORT")

	fmt.Fprintf(sb, "URL:        %s\n", r.URL)
	if r.FinalURL != "" && r.FinalURL != r.URL {
		fmt.Fprintf(sb, "Final URL:  %s\n", r.FinalURL)
	}
	if r.Status != 0 {
		fmt.Fprintf(sb, "HTTP:       %d\n", r.Status)
	}
	fmt.Fprintf(sb, "Audit Date: %s\n", r.AuditedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Status:     %s\n", statusText(r))
	fmt.Fprintf(sb, "Conflicts:  %d\n\n", len(r.Conflicts))
}

// writeConflicts lists the detected conflicts, the headline of the report.
func (w *SimpleWriter) writeConflicts(sb *strings.Builder, r *model.AuditReport) {
	if len(r.Conflicts) == 0 && !w.showEmpty {
		return
	}

	w.writeSection(sb, "CONFLICTS")
	if len(r.Conflicts) == 0 {
		sb.WriteString("  No conflicts detected\n\n")
		return
	}
	for _, c := range r.Conflicts {
		fmt.Fprintf(sb, "  [!] %s\n", c)
	}
	sb.WriteString("\n")
}

// writeIndexability covers noindex, robots.txt and sitemap membership.
func (w *SimpleWriter) writeIndexability(sb *strings.Builder, r *model.AuditReport) {
	w.writeSection(sb, "INDEXABILITY")

	noindex := yesNo(r.Noindex)
	if r.Noindex && r.NoindexSource != "" {
		noindex += " (" + r.NoindexSource + ")"
	}
	fmt.Fprintf(sb, "  Noindex:          %s\n", noindex)

	switch {
	case r.Robots.Error != "":
		fmt.Fprintf(sb, "  robots.txt:       unavailable (%s)\n", r.Robots.Error)
	case !r.Robots.Fetched:
		fmt.Fprintf(sb, "  robots.txt:       not found (status %d)\n", r.Robots.Status)
	default:
		decision := r.Robots.Decision
		if r.Robots.MatchedRule != "" {
			decision += " by " + r.Robots.MatchedRule
		}
		fmt.Fprintf(sb, "  robots.txt:       %s\n", decision)
	}
	if r.Robots.Agent != "" && r.Robots.AgentAllowed != nil {
		fmt.Fprintf(sb, "  %-17s %s\n", r.Robots.Agent+":", allowedText(*r.Robots.AgentAllowed))
	}

	fmt.Fprintf(sb, "  In sitemap:       %s (%s URLs tested in %d sitemaps)\n",
		yesNo(r.Sitemap.Found), w.printer.Sprintf("%d", r.Sitemap.Tested), len(r.Sitemap.Sitemaps))
	sb.WriteString("\n")

	if w.verbose && len(r.Sitemap.Skipped) > 0 {
		sb.WriteString("  Skipped sitemaps:\n")
		writeSkipped(sb, r.Sitemap.Skipped)
	}
}

// writePointers covers canonical, AMP and hreflang declarations.
func (w *SimpleWriter) writePointers(sb *strings.Builder, r *model.AuditReport) {
	w.writeSection(sb, "DECLARED POINTERS")

	switch {
	case !r.Canonical.Present:
		sb.WriteString("  Canonical:  none\n")
	case r.Canonical.SelfReferencing:
		fmt.Fprintf(sb, "  Canonical:  %s (self)\n", r.Canonical.Declared)
	default:
		fmt.Fprintf(sb, "  Canonical:  %s\n", r.Canonical.Declared)
		if w.verbose && r.Canonical.Check != nil {
			w.writeCheck(sb, r.Canonical.Check)
		}
	}

	if r.AMP.Present {
		fmt.Fprintf(sb, "  AMP:        %s (back-canonical %s)\n", r.AMP.Declared, yesNo(r.AMP.BackCanonicalOk))
		if w.verbose && r.AMP.Check != nil {
			w.writeCheck(sb, r.AMP.Check)
		}
	} else {
		sb.WriteString("  AMP:        none\n")
	}

	fmt.Fprintf(sb, "  Hreflang:   %d declared, %d sampled, %d reciprocal\n",
		len(r.Hreflang.Declared), r.Hreflang.Sampled, r.Hreflang.Reciprocal)
	if w.verbose {
		for i := range r.Hreflang.Checks {
			w.writeCheck(sb, &r.Hreflang.Checks[i])
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeCheck(sb *strings.Builder, c *model.ReciprocityCheck) {
	label := string(c.Kind)
	if c.Lang != "" {
		label += " " + c.Lang
	}
	switch {
	case c.Error != "":
		fmt.Fprintf(sb, "    - %s %s: %s\n", label, c.DeclaredTarget, c.Error)
	default:
		fmt.Fprintf(sb, "    - %s %s: status %d, back-reference %s\n",
			label, c.DeclaredTarget, c.TargetStatus, yesNo(c.BackReferenceFound))
	}
}

// writeInlinks writes the internal-link sample.
func (w *SimpleWriter) writeInlinks(sb *strings.Builder, r *model.AuditReport) {
	if r.Inlinks.Sampled == 0 && !w.showEmpty {
		return
	}

	w.writeSection(sb, "INLINKS")
	fmt.Fprintf(sb, "  %d of %d sampled pages link here (%s candidates)\n",
		r.Inlinks.Found, r.Inlinks.Sampled, w.printer.Sprintf("%d", r.Inlinks.Candidates))
	for _, rec := range r.Inlinks.Records {
		nofollow := ""
		if rec.Nofollow {
			nofollow = " [nofollow]"
		}
		fmt.Fprintf(sb, "  * %s  %q%s\n", rec.RefererURL, rec.AnchorText, nofollow)
	}
	sb.WriteString("\n")
}

// writeAssets writes the asset weight summary.
func (w *SimpleWriter) writeAssets(sb *strings.Builder, r *model.AuditReport) {
	if r.Heavy.Scanned == 0 && !w.showEmpty {
		return
	}

	w.writeSection(sb, "ASSETS")
	fmt.Fprintf(sb, "  Scanned:          %d of %d\n", r.Heavy.Scanned, r.Heavy.Collected)
	fmt.Fprintf(sb, "  Total size:       %s\n", formatBytes(r.Heavy.TotalBytes))
	fmt.Fprintf(sb, "  Third-party:      %d\n", r.Heavy.ThirdParty)
	fmt.Fprintf(sb, "  Render-blocking:  %d\n\n", r.Heavy.RenderBlocking)

	if len(r.Heavy.Top) > 0 {
		sb.WriteString("  Heaviest:\n")
		for _, a := range r.Heavy.Top {
			fmt.Fprintf(sb, "    %10s  %-10s %s\n", byteLength(a.ByteLength), w.title.String(string(a.Kind)), a.URL)
		}
		sb.WriteString("\n")
	}

	if w.verbose {
		sb.WriteString("  All assets:\n")
		for _, a := range r.Heavy.Assets {
			if a.Error != "" {
				fmt.Fprintf(sb, "    %-10s %s: %s\n", w.title.String(string(a.Kind)), a.URL, a.Error)
				continue
			}
			cache := a.CacheControl
			if cache == "" {
				cache = "no cache-control"
			}
			fmt.Fprintf(sb, "    %-10s %s (%d, %s)\n", w.title.String(string(a.Kind)), a.URL, a.Status, cache)
		}
		sb.WriteString("\n")
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", lineWidth))
	sb.WriteString("\n")
	sb.WriteString("Report generated by seoprobe\n")
	sb.WriteString("https://github.com/nao1215/seoprobe\n")
	sb.WriteString(strings.Repeat("=", lineWidth))
	sb.WriteString("\n")
}

func writeSkipped(sb *strings.Builder, skipped []model.SkippedDocument) {
	for _, s := range skipped {
		fmt.Fprintf(sb, "  [-] %s: %s\n", s.URL, s.Reason)
	}
	sb.WriteString("\n")
}

func allowedText(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "disallowed"
}
