package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/nao1215/seoprobe/internal/model"
)

// Writer defines the interface for report output.
// Implementations write audit results in various formats.
type Writer interface {
	// Write outputs a touchpoints audit report.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.AuditReport) (int, error)

	// WriteDiscovery outputs the result of a sitemap discovery.
	WriteDiscovery(discovery *model.SitemapDiscovery) (int, error)
}

// MultiWriter writes to multiple Writers in turn, for example the terminal
// and a report file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.AuditReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteDiscovery outputs the discovery result to all configured Writers.
func (m *MultiWriter) WriteDiscovery(discovery *model.SitemapDiscovery) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteDiscovery(discovery)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Format selects a report format.
type Format string

const (
	// FormatText is the human-readable text report.
	FormatText Format = "text"
	// FormatJSON is the JSON report.
	FormatJSON Format = "json"
	// FormatMarkdown is the Markdown report.
	FormatMarkdown Format = "markdown"
)

// SelectFormat maps the --json and --markdown flags to a Format.
// Neither flag selects FormatText.
func SelectFormat(jsonReport, markdownReport bool) Format {
	switch {
	case jsonReport:
		return FormatJSON
	case markdownReport:
		return FormatMarkdown
	default:
		return FormatText
	}
}

// NewWriter creates the Writer for format. version is embedded in JSON
// reports.
func NewWriter(format Format, output io.Writer, version string) (Writer, error) {
	switch format {
	case FormatText, "":
		return NewSimpleWriter(output), nil
	case FormatJSON:
		return NewFullJSONWriter(output, version, WithPrettyPrint()), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// formatBytes renders n as a short IEC size such as "1.5 KiB".
func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// byteLength renders an optional asset size.
func byteLength(n *int64) string {
	if n == nil {
		return "unknown"
	}
	return formatBytes(*n)
}

// statusText describes how the audit ended.
func statusText(r *model.AuditReport) string {
	switch {
	case r.TimedOut:
		return "TIMED OUT (partial results)"
	case r.Error != "":
		return "ERROR - " + r.Error
	default:
		return "Complete"
	}
}

// yesNo renders a boolean for the text and Markdown reports.
func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
