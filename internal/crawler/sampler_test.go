package crawler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/seoprobe/internal/model"
)

type pageFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	fetched map[string]int
}

func newPageFetcher(pages map[string]string) *pageFetcher {
	return &pageFetcher{pages: pages, fetched: make(map[string]int)}
}

func (f *pageFetcher) Fetch(_ context.Context, rawURL string) (*model.Page, error) {
	f.mu.Lock()
	f.fetched[rawURL]++
	f.mu.Unlock()

	body, ok := f.pages[rawURL]
	if !ok {
		return &model.Page{URL: rawURL, StatusCode: http.StatusNotFound}, nil
	}
	if body == "!error" {
		return nil, errors.New("connection refused")
	}
	return &model.Page{
		URL:         rawURL,
		StatusCode:  http.StatusOK,
		ContentType: "text/html; charset=utf-8",
		Body:        []byte(body),
	}, nil
}

func TestSamplerSelect(t *testing.T) {
	t.Parallel()

	candidates := []string{
		"https://example.com/",
		"https://example.com/about",
		"https://example.com/blog/a",
		"https://example.com/blog/target",
		"https://example.com/blog/target/",
		"https://example.com/blog/b",
		"https://example.com/tag/go",
		"https://example.com/news/x",
		"https://example.com/blog/b",
		"not a url",
	}

	t.Run("prioritizes shared first segment", func(t *testing.T) {
		t.Parallel()

		s := NewSampler(newPageFetcher(nil))
		got := s.Select(candidates, "https://example.com/blog/target", 4)
		want := []string{
			"https://example.com/blog/a",
			"https://example.com/blog/b",
			"https://example.com/",
			"https://example.com/about",
		}
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("Select() = %v, want %v", got, want)
		}
	})

	t.Run("ignore patterns", func(t *testing.T) {
		t.Parallel()

		s := NewSampler(newPageFetcher(nil), WithIgnorePatterns([]string{"/tag/*", "/"}))
		got := s.Select(candidates, "https://example.com/blog/target", 100)
		for _, u := range got {
			if strings.Contains(u, "/tag/") || u == "https://example.com/" {
				t.Errorf("Select() kept ignored URL %s", u)
			}
		}
		if len(got) != 4 {
			t.Errorf("Select() = %v, want 4 URLs", got)
		}
	})

	t.Run("root target has no priority group", func(t *testing.T) {
		t.Parallel()

		s := NewSampler(newPageFetcher(nil))
		got := s.Select(candidates, "https://example.com/", 2)
		want := []string{"https://example.com/about", "https://example.com/blog/a"}
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("Select() = %v, want %v", got, want)
		}
	})
}

func TestSamplerSample(t *testing.T) {
	t.Parallel()

	target := "https://example.com/blog/target"
	longText := strings.Repeat("x", 150)

	f := newPageFetcher(map[string]string{
		"https://example.com/blog/a": `<a href="/blog/target/">First</a><a href="/blog/target">Second</a>`,
		"https://example.com/blog/b": `<a rel="nofollow" href="https://EXAMPLE.com/blog/target#c">` + longText + `</a>`,
		"https://example.com/blog/c": `<a href="/blog/other">Other</a>`,
		"https://example.com/blog/d": "!error",
	})

	s := NewSampler(f, WithSamplerConcurrency(2))
	summary := s.Sample(context.Background(), []string{
		"https://example.com/blog/a",
		"https://example.com/blog/b",
		"https://example.com/blog/c",
		"https://example.com/blog/d",
		"https://example.com/blog/missing",
	}, target, 10)

	if summary.Candidates != 5 || summary.Sampled != 5 {
		t.Errorf("Candidates = %d, Sampled = %d, want 5, 5", summary.Candidates, summary.Sampled)
	}
	if summary.Found != 2 || len(summary.Records) != 2 {
		t.Fatalf("Records = %+v, want 2", summary.Records)
	}

	first := summary.Records[0]
	if first.RefererURL != "https://example.com/blog/a" || first.AnchorText != "First" || first.Nofollow {
		t.Errorf("Records[0] = %+v, want first anchor only", first)
	}

	second := summary.Records[1]
	if !second.Nofollow {
		t.Error("Records[1].Nofollow = false, want true")
	}
	if n := len([]rune(second.AnchorText)); n != maxAnchorTextRunes+1 {
		t.Errorf("anchor text length = %d runes, want truncated to %d plus ellipsis", n, maxAnchorTextRunes)
	}

	for u, n := range f.fetched {
		if n != 1 {
			t.Errorf("%s fetched %d times, want 1", u, n)
		}
	}
}

func TestSamplerEmpty(t *testing.T) {
	t.Parallel()

	s := NewSampler(newPageFetcher(nil))
	summary := s.Sample(context.Background(), nil, "https://example.com/x", 5)
	if summary.Sampled != 0 || summary.Records == nil {
		t.Errorf("summary = %+v, want zero sample with empty records", summary)
	}
}

// TestMatchPattern tests glob pattern matching used for ignore patterns.
func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{"prefix match", "/tag/*", "/tag/go", true},
		{"prefix exact", "/tag/*", "/tag", true},
		{"prefix nested", "/tag/*", "/tag/go/page/2", true},
		{"prefix partial no match", "/tag/*", "/tagged", false},
		{"extension", "*.pdf", "/docs/file.pdf", true},
		{"extension no match", "*.pdf", "/docs/file.txt", false},
		{"exact", "/search", "/search", true},
		{"exact no match", "/search", "/searches", false},
		{"single char", "/page/?", "/page/2", true},
		{"single char no match", "/page/?", "/page/10", false},
		{"root", "/", "/", true},
		{"bad pattern", "[", "/x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := matchPattern(tt.pattern, tt.path); got != tt.want {
				t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}
