package reciprocity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/seoprobe/internal/crawler"
	"github.com/nao1215/seoprobe/internal/model"
)

type stubPage struct {
	status int
	body   string
	header http.Header
	err    error
}

type stubFetcher struct {
	mu    sync.Mutex
	pages map[string]stubPage
	calls []string
}

func (s *stubFetcher) Fetch(_ context.Context, rawURL string) (*model.Page, error) {
	s.mu.Lock()
	s.calls = append(s.calls, rawURL)
	s.mu.Unlock()

	p, ok := s.pages[rawURL]
	if !ok {
		return &model.Page{URL: rawURL, StatusCode: http.StatusNotFound}, nil
	}
	if p.err != nil {
		return nil, p.err
	}
	status := p.status
	if status == 0 {
		status = http.StatusOK
	}
	return &model.Page{
		URL:         rawURL,
		StatusCode:  status,
		Headers:     p.header,
		ContentType: "text/html",
		Body:        []byte(p.body),
	}, nil
}

func htmlWith(head string) string {
	return "<html><head>" + head + "</head><body></body></html>"
}

func canonical(href string) string {
	return fmt.Sprintf(`<link rel="canonical" href="%s">`, href)
}

func hreflang(lang, href string) string {
	return fmt.Sprintf(`<link rel="alternate" hreflang="%s" href="%s">`, lang, href)
}

func TestCanonical(t *testing.T) {
	t.Parallel()

	t.Run("loop back is detected", func(t *testing.T) {
		t.Parallel()

		f := &stubFetcher{pages: map[string]stubPage{
			"https://example.com/b": {body: htmlWith(canonical("https://example.com/a"))},
		}}
		v := NewVerifier(f)

		got := v.Canonical(context.Background(), Source{
			URL:          "https://example.com/a",
			Declarations: crawler.Declarations{Canonical: "https://example.com/b"},
		})

		if got.Check == nil {
			t.Fatal("Check = nil, want a check for a non-self canonical")
		}
		if !got.LoopBack {
			t.Error("LoopBack = false, want true")
		}
		if !got.Check.BackReferenceFound {
			t.Error("BackReferenceFound = false, want true")
		}
		if got.TargetSelfCanonical {
			t.Error("TargetSelfCanonical = true, want false")
		}
	})

	t.Run("target canonicalizes to itself", func(t *testing.T) {
		t.Parallel()

		f := &stubFetcher{pages: map[string]stubPage{
			"https://example.com/b": {body: htmlWith(canonical("/b/"))},
		}}
		got := NewVerifier(f).Canonical(context.Background(), Source{
			URL:          "https://example.com/a",
			Declarations: crawler.Declarations{Canonical: "https://example.com/b"},
		})

		if got.LoopBack {
			t.Error("LoopBack = true, want false")
		}
		if !got.TargetSelfCanonical {
			t.Error("TargetSelfCanonical = false, want true")
		}
		if !got.Check.Reachable() {
			t.Errorf("Reachable() = false, check = %+v", got.Check)
		}
	})

	t.Run("self-referencing canonical is not fetched", func(t *testing.T) {
		t.Parallel()

		f := &stubFetcher{}
		got := NewVerifier(f).Canonical(context.Background(), Source{
			URL:          "https://example.com/a",
			Declarations: crawler.Declarations{Canonical: "https://EXAMPLE.com/a/"},
		})

		if !got.Present || !got.SelfReferencing || got.Check != nil {
			t.Errorf("summary = %+v, want present self-referencing without check", got)
		}
		if len(f.calls) != 0 {
			t.Errorf("fetched %v, want no fetch", f.calls)
		}
	})

	t.Run("unreachable target", func(t *testing.T) {
		t.Parallel()

		f := &stubFetcher{pages: map[string]stubPage{
			"https://example.com/down": {err: errors.New("upstream error: timeout after 15s")},
		}}
		got := NewVerifier(f).Canonical(context.Background(), Source{
			URL:          "https://example.com/a",
			Declarations: crawler.Declarations{Canonical: "https://example.com/down"},
		})

		if got.Check == nil || got.Check.Reachable() {
			t.Fatalf("Check = %+v, want unreachable", got.Check)
		}
		if !strings.Contains(got.Check.Error, "timeout") {
			t.Errorf("Error = %q", got.Check.Error)
		}
		if msg := model.TargetFailureConflict(got.Check); !strings.HasPrefix(msg, model.ConflictCanonicalUnreachable) {
			t.Errorf("conflict = %q", msg)
		}
	})

	t.Run("error status", func(t *testing.T) {
		t.Parallel()

		f := &stubFetcher{pages: map[string]stubPage{
			"https://example.com/gone": {status: http.StatusGone},
		}}
		got := NewVerifier(f).Canonical(context.Background(), Source{
			URL:          "https://example.com/a",
			Declarations: crawler.Declarations{Canonical: "https://example.com/gone"},
		})

		if got.Check.TargetStatus != http.StatusGone || got.Check.Reachable() {
			t.Errorf("Check = %+v, want status 410", got.Check)
		}
	})

	t.Run("noindex target", func(t *testing.T) {
		t.Parallel()

		f := &stubFetcher{pages: map[string]stubPage{
			"https://example.com/b": {
				body:   htmlWith(canonical("https://example.com/b")),
				header: http.Header{"X-Robots-Tag": []string{"noindex"}},
			},
		}}
		got := NewVerifier(f).Canonical(context.Background(), Source{
			URL:          "https://example.com/a",
			Declarations: crawler.Declarations{Canonical: "https://example.com/b"},
		})
		if !got.TargetNoindex {
			t.Error("TargetNoindex = false, want true")
		}
	})

	t.Run("absent", func(t *testing.T) {
		t.Parallel()

		got := NewVerifier(&stubFetcher{}).Canonical(context.Background(), Source{URL: "https://example.com/a"})
		if got.Present || got.Check != nil {
			t.Errorf("summary = %+v, want empty", got)
		}
	})
}

func TestAMP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		src         Source
		ampHead     string
		wantBackOK  bool
		wantChecked bool
	}{
		{
			name:        "amp canonical points to source without source canonical",
			src:         Source{URL: "https://example.com/post", Declarations: crawler.Declarations{AMP: "https://example.com/post/amp"}},
			ampHead:     canonical("https://example.com/post"),
			wantBackOK:  true,
			wantChecked: true,
		},
		{
			name: "amp canonical points to source's declared canonical",
			src: Source{URL: "https://example.com/post?ref=x", Declarations: crawler.Declarations{
				AMP:       "https://example.com/post/amp",
				Canonical: "https://example.com/post",
			}},
			ampHead:     canonical("https://example.com/post"),
			wantBackOK:  true,
			wantChecked: true,
		},
		{
			name:        "amp canonical points elsewhere",
			src:         Source{URL: "https://example.com/post", Declarations: crawler.Declarations{AMP: "https://example.com/post/amp"}},
			ampHead:     canonical("https://example.com/other"),
			wantBackOK:  false,
			wantChecked: true,
		},
		{
			name:        "amp without canonical",
			src:         Source{URL: "https://example.com/post", Declarations: crawler.Declarations{AMP: "https://example.com/post/amp"}},
			ampHead:     "",
			wantBackOK:  false,
			wantChecked: true,
		},
		{
			name:        "no amp declared",
			src:         Source{URL: "https://example.com/post"},
			wantBackOK:  false,
			wantChecked: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := &stubFetcher{pages: map[string]stubPage{
				"https://example.com/post/amp": {body: htmlWith(tt.ampHead)},
			}}
			got := NewVerifier(f).AMP(context.Background(), tt.src)

			if got.BackCanonicalOk != tt.wantBackOK {
				t.Errorf("BackCanonicalOk = %v, want %v", got.BackCanonicalOk, tt.wantBackOK)
			}
			if (got.Check != nil) != tt.wantChecked {
				t.Errorf("Check = %+v, want checked=%v", got.Check, tt.wantChecked)
			}
		})
	}
}

func TestHreflang(t *testing.T) {
	t.Parallel()

	src := Source{
		URL: "https://example.com/en/page",
		Declarations: crawler.Declarations{Hreflang: []model.HreflangAlternate{
			{Lang: "en", Href: "https://example.com/en/page"},
			{Lang: "ja", Href: "https://example.com/ja/page"},
			{Lang: "de", Href: "https://example.com/de/page"},
			{Lang: "fr_FR", Href: "https://example.com/fr/page"},
			{Lang: "x-default", Href: "https://example.com/ja/page/"},
		}},
	}

	f := &stubFetcher{pages: map[string]stubPage{
		"https://example.com/ja/page": {body: htmlWith(
			hreflang("en", "https://example.com/en/page/") + hreflang("ja", "https://example.com/ja/page"))},
		"https://example.com/de/page": {body: htmlWith(hreflang("de", "https://example.com/de/page"))},
		"https://example.com/fr/page": {status: http.StatusNotFound},
	}}

	got := NewVerifier(f).Hreflang(context.Background(), src)

	if len(got.Declared) != 5 {
		t.Errorf("len(Declared) = %d, want 5", len(got.Declared))
	}
	if got.Sampled != 3 {
		t.Fatalf("Sampled = %d, want 3 (self and duplicate excluded)", got.Sampled)
	}
	if got.Reciprocal != 1 {
		t.Errorf("Reciprocal = %d, want 1", got.Reciprocal)
	}
	if got.Checks[0].Lang != "ja" || !got.Checks[0].BackReferenceFound {
		t.Errorf("Checks[0] = %+v, want ja reciprocal", got.Checks[0])
	}
	if got.Checks[1].BackReferenceFound {
		t.Errorf("Checks[1] = %+v, want de missing return link", got.Checks[1])
	}
	if got.Checks[2].TargetStatus != http.StatusNotFound {
		t.Errorf("Checks[2] = %+v, want 404", got.Checks[2])
	}
	if len(got.InvalidCodes) != 1 || got.InvalidCodes[0] != "fr_FR" {
		t.Errorf("InvalidCodes = %v, want [fr_FR]", got.InvalidCodes)
	}
}

func TestHreflangSampleCap(t *testing.T) {
	t.Parallel()

	var alts []model.HreflangAlternate
	for i := range 12 {
		alts = append(alts, model.HreflangAlternate{
			Lang: "en",
			Href: fmt.Sprintf("https://example.com/alt-%d", i),
		})
	}

	f := &stubFetcher{}
	got := NewVerifier(f).Hreflang(context.Background(), Source{
		URL:          "https://example.com/",
		Declarations: crawler.Declarations{Hreflang: alts},
	})

	if got.Sampled != DefaultHreflangSample {
		t.Errorf("Sampled = %d, want %d", got.Sampled, DefaultHreflangSample)
	}
	if len(f.calls) != DefaultHreflangSample {
		t.Errorf("fetched %d alternates, want %d", len(f.calls), DefaultHreflangSample)
	}
}

func TestVerifyAll(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{pages: map[string]stubPage{
		"https://example.com/b":   {body: htmlWith(canonical("https://example.com/a"))},
		"https://example.com/amp": {body: htmlWith(canonical("https://example.com/a"))},
		"https://example.com/ja":  {body: htmlWith(hreflang("en", "https://example.com/a"))},
	}}

	res := NewVerifier(f).VerifyAll(context.Background(), Source{
		URL: "https://example.com/a",
		Declarations: crawler.Declarations{
			Canonical: "https://example.com/b",
			AMP:       "https://example.com/amp",
			Hreflang:  []model.HreflangAlternate{{Lang: "ja", Href: "https://example.com/ja"}},
		},
	})

	if !res.Canonical.LoopBack {
		t.Error("Canonical.LoopBack = false, want true")
	}
	if !res.AMP.BackCanonicalOk {
		t.Error("AMP.BackCanonicalOk = false, want true")
	}
	if res.Hreflang.Reciprocal != 1 {
		t.Errorf("Hreflang.Reciprocal = %d, want 1", res.Hreflang.Reciprocal)
	}
}

func TestValidHreflang(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code string
		want bool
	}{
		{"en", true},
		{"ja-JP", true},
		{"zh-Hant-TW", true},
		{"x-default", true},
		{"X-Default", true},
		{"en_US", false},
		{"123", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			t.Parallel()
			if got := ValidHreflang(tt.code); got != tt.want {
				t.Errorf("ValidHreflang(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}
