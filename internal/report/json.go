package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/seoprobe/internal/model"
)

// JSONWriter outputs reports in JSON format, for tool integration and
// programmatic processing. The field names match the HTTP API responses.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the audit report in JSON format.
func (w *JSONWriter) Write(report *model.AuditReport) (int, error) {
	return w.writeJSON(report)
}

// WriteDiscovery outputs the discovery result in JSON format.
func (w *JSONWriter) WriteDiscovery(discovery *model.SitemapDiscovery) (int, error) {
	return w.writeJSON(discovery)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Trailing newline for terminal output.
	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONReport wraps an audit report with the version of seoprobe that
// produced it.
type JSONReport struct {
	// Version is the seoprobe version that generated this report.
	Version string `json:"version"`

	// Report is the audit report.
	Report *model.AuditReport `json:"report,omitempty"`

	// Discovery is the sitemap discovery result.
	Discovery *model.SitemapDiscovery `json:"discovery,omitempty"`
}

// FullJSONWriter outputs reports inside a JSONReport envelope.
type FullJSONWriter struct {
	*JSONWriter

	// version is the seoprobe version string.
	version string
}

// NewFullJSONWriter creates a writer for reports with version metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the audit report wrapped with metadata.
func (w *FullJSONWriter) Write(report *model.AuditReport) (int, error) {
	return w.writeJSON(&JSONReport{Version: w.version, Report: report})
}

// WriteDiscovery outputs the discovery result wrapped with metadata.
func (w *FullJSONWriter) WriteDiscovery(discovery *model.SitemapDiscovery) (int, error) {
	return w.writeJSON(&JSONReport{Version: w.version, Discovery: discovery})
}
