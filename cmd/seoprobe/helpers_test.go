package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
)

// testSite serves fixed routes and records the request headers it saw.
// "{{base}}" in a body is replaced with the server URL.
type testSite struct {
	*httptest.Server

	mu      sync.Mutex
	headers []http.Header
}

func newTestSite(t *testing.T, routes map[string]string) *testSite {
	t.Helper()

	site := &testSite{}
	site.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		site.mu.Lock()
		site.headers = append(site.headers, r.Header.Clone())
		site.mu.Unlock()

		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		switch {
		case strings.HasSuffix(r.URL.Path, ".xml"):
			w.Header().Set("Content-Type", "application/xml")
		case strings.HasSuffix(r.URL.Path, ".txt"):
			w.Header().Set("Content-Type", "text/plain")
		default:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}
		if r.Method == http.MethodHead {
			return
		}
		_, _ = io.WriteString(w, strings.ReplaceAll(body, "{{base}}", site.URL)) //nolint:errcheck // test server
	}))
	t.Cleanup(site.Close)
	return site
}

// sawHeader reports whether any request carried header name with value.
func (s *testSite) sawHeader(name, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.headers {
		if h.Get(name) == value {
			return true
		}
	}
	return false
}

// noindexSite is a site whose /page is noindex but listed in the sitemap.
func noindexSite(t *testing.T) *testSite {
	t.Helper()

	return newTestSite(t, map[string]string{
		"/robots.txt":  "User-agent: *\nAllow: /\nSitemap: {{base}}/sitemap.xml\n",
		"/sitemap.xml": `<urlset><url><loc>{{base}}/page</loc></url><url><loc>{{base}}/other</loc></url></urlset>`,
		"/page":        `<html><head><meta name="robots" content="noindex"></head><body>hidden</body></html>`,
		"/other":       `<html><body><a href="/page">the page</a></body></html>`,
	})
}

// writeConfigFile writes a .seoprobe file and returns its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".seoprobe")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

// emptyConfigFile avoids picking up a .seoprobe from the home directory.
func emptyConfigFile(t *testing.T) string {
	t.Helper()
	return writeConfigFile(t, "sites: {}\n")
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// parseFlags parses args into cmd's flags and returns the positional args.
func parseFlags(t *testing.T, cmd *cobra.Command, args ...string) []string {
	t.Helper()

	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return cmd.Flags().Args()
}
