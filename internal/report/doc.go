// Package report renders audit reports and sitemap discoveries.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text for terminal display
//   - JSONWriter and FullJSONWriter: JSON for tool integration
//   - MarkdownWriter: GitHub-flavoured Markdown for sharing
//
// Writers implement the Writer interface, so they can be used
// interchangeably and combined with MultiWriter.
package report
