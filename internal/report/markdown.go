package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/seoprobe/internal/model"
)

// MarkdownWriter outputs reports in GitHub-flavoured Markdown, for pull
// request comments and shared audit notes.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the audit report in Markdown format.
func (w *MarkdownWriter) Write(report *model.AuditReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeConflicts(md, report)
	w.writeIndexability(md, report)
	w.writePointers(md, report)
	w.writeInlinks(md, report)
	w.writeAssets(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteDiscovery outputs the sitemap discovery result in Markdown format.
func (w *MarkdownWriter) WriteDiscovery(d *model.SitemapDiscovery) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("seoprobe Sitemap Discovery")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Origin", "`" + d.Origin + "`"},
			{"Sitemaps", strconv.Itoa(len(d.Sitemaps))},
			{"URLs", strconv.Itoa(d.Count)},
		},
	})
	md.PlainText("")

	if len(d.Sitemaps) > 0 {
		md.H2("Sitemaps")
		md.PlainText("")
		md.BulletList(d.Sitemaps...)
		md.PlainText("")
	}

	if len(d.Skipped) > 0 {
		w.writeSkipped(md, d.Skipped)
	}

	md.H2("URLs")
	md.PlainText("")
	if len(d.URLs) == 0 {
		md.PlainText("No URLs found.")
	} else {
		rows := make([][]string, len(d.URLs))
		for i, u := range d.URLs {
			lastmod := u.LastMod
			if lastmod == "" {
				lastmod = "-"
			}
			rows[i] = []string{u.Loc, lastmod}
		}
		md.Table(markdown.TableSet{Header: []string{"Loc", "Lastmod"}, Rows: rows})
	}
	md.PlainText("")

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writeHeader writes the report header with audit information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, r *model.AuditReport) {
	md.H1("seoprobe Audit Report")
	md.PlainText("")

	rows := [][]string{
		{"URL", "`" + r.URL + "`"},
	}
	if r.FinalURL != "" && r.FinalURL != r.URL {
		rows = append(rows, []string{"Final URL", "`" + r.FinalURL + "`"})
	}
	if r.Status != 0 {
		rows = append(rows, []string{"HTTP Status", strconv.Itoa(r.Status)})
	}
	rows = append(rows,
		[]string{"Audit Date", r.AuditedAt.Format("2006-01-02 15:04:05 MST")},
		[]string{"Status", w.getStatusText(r)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(r *model.AuditReport) string {
	if r.TimedOut {
		return "⚠️ Timed Out (partial results)"
	}
	if r.Error != "" {
		return "❌ Error - " + r.Error
	}
	return "✅ Complete"
}

// writeConflicts writes the conflicts list with an alert matching its size.
func (w *MarkdownWriter) writeConflicts(md *markdown.Markdown, r *model.AuditReport) {
	md.H2("Conflicts")
	md.PlainText("")

	if len(r.Conflicts) == 0 {
		md.Tip("No conflicts detected between the page and the rest of the site.")
		md.PlainText("")
		return
	}

	if r.Noindex || r.Robots.Blocked {
		md.Cautionf("%d conflict(s) detected on a page that search engines may not index.", len(r.Conflicts))
	} else {
		md.Warningf("%d conflict(s) detected.", len(r.Conflicts))
	}
	md.PlainText("")
	md.BulletList(r.Conflicts...)
	md.PlainText("")
}

// writeIndexability writes noindex, robots.txt and sitemap state.
func (w *MarkdownWriter) writeIndexability(md *markdown.Markdown, r *model.AuditReport) {
	md.H2("Indexability")
	md.PlainText("")

	noindex := yesNo(r.Noindex)
	if r.Noindex && r.NoindexSource != "" {
		noindex += " (" + r.NoindexSource + ")"
	}

	robots := r.Robots.Decision
	switch {
	case r.Robots.Error != "":
		robots = "unavailable"
	case !r.Robots.Fetched:
		robots = "not found"
	case r.Robots.MatchedRule != "":
		robots += " (`" + r.Robots.MatchedRule + "`)"
	}

	rows := [][]string{
		{"Noindex", noindex},
		{"robots.txt", robots},
	}
	if r.Robots.Agent != "" && r.Robots.AgentAllowed != nil {
		rows = append(rows, []string{r.Robots.Agent, allowedText(*r.Robots.AgentAllowed)})
	}
	rows = append(rows,
		[]string{"In sitemap", yesNo(r.Sitemap.Found)},
		[]string{"Sitemap URLs tested", strconv.Itoa(r.Sitemap.Tested)},
	)

	md.Table(markdown.TableSet{Header: []string{"Check", "Result"}, Rows: rows})
	md.PlainText("")

	if len(r.Sitemap.Skipped) > 0 {
		w.writeSkipped(md, r.Sitemap.Skipped)
	}
}

func (w *MarkdownWriter) writeSkipped(md *markdown.Markdown, skipped []model.SkippedDocument) {
	var sb strings.Builder
	for _, s := range skipped {
		sb.WriteString("- " + s.URL + ": " + s.Reason + "\n")
	}
	md.Details("Skipped sitemap documents ("+strconv.Itoa(len(skipped))+")", sb.String())
	md.PlainText("")
}

// writePointers writes one table row per reciprocity check.
func (w *MarkdownWriter) writePointers(md *markdown.Markdown, r *model.AuditReport) {
	md.H2("Declared Pointers")
	md.PlainText("")

	checks := make([]*model.ReciprocityCheck, 0, len(r.Hreflang.Checks)+2)
	if r.Canonical.Check != nil {
		checks = append(checks, r.Canonical.Check)
	}
	if r.AMP.Check != nil {
		checks = append(checks, r.AMP.Check)
	}
	for i := range r.Hreflang.Checks {
		checks = append(checks, &r.Hreflang.Checks[i])
	}

	switch {
	case r.Canonical.SelfReferencing:
		md.PlainTextf("Canonical: `%s` (self-referencing)", r.Canonical.Declared)
	case !r.Canonical.Present:
		md.PlainText("Canonical: none")
	}
	md.PlainText("")

	if len(checks) == 0 {
		md.PlainText("No pointers to verify.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(checks))
	for i, c := range checks {
		kind := string(c.Kind)
		if c.Lang != "" {
			kind += " (" + c.Lang + ")"
		}
		status := "-"
		if c.TargetStatus != 0 {
			status = strconv.Itoa(c.TargetStatus)
		}
		back := yesNo(c.BackReferenceFound)
		if c.Error != "" {
			back = c.Error
		}
		rows[i] = []string{kind, truncateString(c.DeclaredTarget, 60), status, back}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Pointer", "Target", "Status", "Links back"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeInlinks writes the internal-link sample.
func (w *MarkdownWriter) writeInlinks(md *markdown.Markdown, r *model.AuditReport) {
	md.H2("Inlinks")
	md.PlainText("")
	md.PlainTextf("%d of %d sampled pages link here (%d candidates).",
		r.Inlinks.Found, r.Inlinks.Sampled, r.Inlinks.Candidates)
	md.PlainText("")

	if len(r.Inlinks.Records) == 0 {
		return
	}

	rows := make([][]string, len(r.Inlinks.Records))
	for i, rec := range r.Inlinks.Records {
		rows[i] = []string{rec.RefererURL, truncateString(rec.AnchorText, 50), yesNo(rec.Nofollow)}
	}
	md.Table(markdown.TableSet{Header: []string{"Page", "Anchor", "Nofollow"}, Rows: rows})
	md.PlainText("")
}

// writeAssets writes the asset summary, a byte distribution chart and the
// heaviest assets.
func (w *MarkdownWriter) writeAssets(md *markdown.Markdown, r *model.AuditReport) {
	md.H2("Assets")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Scanned", strconv.Itoa(r.Heavy.Scanned) + " of " + strconv.Itoa(r.Heavy.Collected)},
			{"Total size", formatBytes(r.Heavy.TotalBytes)},
			{"Third-party", strconv.Itoa(r.Heavy.ThirdParty)},
			{"Render-blocking", strconv.Itoa(r.Heavy.RenderBlocking)},
		},
	})
	md.PlainText("")

	if r.Heavy.TotalBytes > 0 {
		w.writePieChart(md, r)
	}

	if len(r.Heavy.Top) == 0 {
		return
	}

	title := cases.Title(language.English)
	rows := make([][]string, len(r.Heavy.Top))
	for i, a := range r.Heavy.Top {
		rows[i] = []string{
			truncateString(a.URL, 60),
			title.String(string(a.Kind)),
			byteLength(a.ByteLength),
			yesNo(a.ThirdParty),
			yesNo(a.RenderBlocking),
		}
	}
	md.H3("Heaviest Assets")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Kind", "Size", "Third-party", "Render-blocking"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of known bytes per asset kind.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, r *model.AuditReport) {
	order := []model.AssetKind{
		model.AssetStylesheet,
		model.AssetScript,
		model.AssetImage,
		model.AssetFont,
		model.AssetMedia,
		model.AssetPreload,
	}
	totals := make(map[model.AssetKind]int64, len(order))
	for _, a := range r.Heavy.Assets {
		if a.ByteLength != nil {
			totals[a.Kind] += *a.ByteLength
		}
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Asset Bytes by Kind"),
		piechart.WithShowData(true),
	)
	title := cases.Title(language.English)
	for _, kind := range order {
		if totals[kind] > 0 {
			chart.LabelAndIntValue(title.String(string(kind)), uint64(totals[kind]))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [seoprobe](https://github.com/nao1215/seoprobe)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
