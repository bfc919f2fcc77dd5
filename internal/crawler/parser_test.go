package crawler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/nao1215/seoprobe/internal/model"
	"github.com/nao1215/seoprobe/internal/urlnorm"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>Example</title>
  <link rel="Canonical" href="/articles/go">
  <link rel="canonical" href="/ignored-second">
  <link rel="amphtml" href="https://example.com/amp/articles/go">
  <link rel="alternate" hreflang="en" href="https://example.com/articles/go">
  <link rel="alternate" hreflang="ja-JP" href="https://example.jp/articles/go">
  <link rel="alternate" type="application/rss+xml" href="/feed.xml">
  <meta name="ROBOTS" content="index, follow">
  <link rel="stylesheet" href="/css/site.css">
  <link rel="stylesheet" href="https://cdn.example.net/lib.css">
  <link rel="preload" as="font" href="/fonts/a.woff2" crossorigin>
  <link rel="preload" as="image" href="/img/hero.webp">
  <link rel="icon" href="/favicon.ico">
  <script src="/js/blocking.js"></script>
  <script async src="/js/async.js"></script>
  <script defer src="/js/defer.js"></script>
  <script type="module" src="/js/app.mjs"></script>
</head>
<body>
  <a href="/articles/rust">Rust <b>article</b></a>
  <a href="https://example.com/about/" rel="nofollow ugc">About</a>
  <a href="#top">Top</a>
  <a href="mailto:me@example.com">Mail</a>
  <a href="javascript:void(0)">JS</a>
  <a href="/img-link"><img src="/img/logo.png" alt="  Logo   image "></a>
  <img src="/img/logo.png">
  <img src="data:image/png;base64,AAAA">
  <script src="/js/footer.js"></script>
  <video src="/media/clip.mp4" poster="/img/poster.jpg"></video>
  <picture><source src="/img/pic.avif"></picture>
  <audio><source src="/media/track.mp3"></audio>
</body>
</html>`

func TestParseDocumentDeclarations(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument("https://example.com/articles/go", []byte(samplePage))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}

	if doc.Canonical != "https://example.com/articles/go" {
		t.Errorf("Canonical = %q", doc.Canonical)
	}
	if doc.AMP != "https://example.com/amp/articles/go" {
		t.Errorf("AMP = %q", doc.AMP)
	}
	if len(doc.Hreflang) != 2 {
		t.Fatalf("Hreflang = %+v, want 2 entries", doc.Hreflang)
	}
	if doc.Hreflang[1].Lang != "ja-JP" || doc.Hreflang[1].Href != "https://example.jp/articles/go" {
		t.Errorf("Hreflang[1] = %+v", doc.Hreflang[1])
	}
	if doc.MetaRobots != "index, follow" {
		t.Errorf("MetaRobots = %q", doc.MetaRobots)
	}
	if doc.Noindex {
		t.Error("Noindex = true, want false")
	}
}

func TestParseDocumentAnchors(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument("https://example.com/articles/go", []byte(samplePage))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}

	want := []Anchor{
		{Href: "https://example.com/articles/rust", Text: "Rust article"},
		{Href: "https://example.com/about/", Text: "About", Nofollow: true},
		{Href: "https://example.com/img-link", Text: "Logo image"},
	}
	if len(doc.Anchors) != len(want) {
		t.Fatalf("Anchors = %+v, want %d", doc.Anchors, len(want))
	}
	for i := range want {
		if doc.Anchors[i] != want[i] {
			t.Errorf("Anchors[%d] = %+v, want %+v", i, doc.Anchors[i], want[i])
		}
	}
}

func TestParseDocumentAssets(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument("https://example.com/articles/go", []byte(samplePage))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}

	type expect struct {
		kind           model.AssetKind
		thirdParty     bool
		renderBlocking bool
	}
	want := map[string]expect{
		"https://example.com/css/site.css":    {model.AssetStylesheet, false, true},
		"https://cdn.example.net/lib.css":     {model.AssetStylesheet, true, true},
		"https://example.com/fonts/a.woff2":   {model.AssetFont, false, false},
		"https://example.com/img/hero.webp":   {model.AssetPreload, false, false},
		"https://example.com/favicon.ico":     {model.AssetImage, false, false},
		"https://example.com/js/blocking.js":  {model.AssetScript, false, true},
		"https://example.com/js/async.js":     {model.AssetScript, false, false},
		"https://example.com/js/defer.js":     {model.AssetScript, false, false},
		"https://example.com/js/app.mjs":      {model.AssetScript, false, false},
		"https://example.com/img/logo.png":    {model.AssetImage, false, false},
		"https://example.com/js/footer.js":    {model.AssetScript, false, false},
		"https://example.com/media/clip.mp4":  {model.AssetMedia, false, false},
		"https://example.com/img/poster.jpg":  {model.AssetImage, false, false},
		"https://example.com/img/pic.avif":    {model.AssetImage, false, false},
		"https://example.com/media/track.mp3": {model.AssetMedia, false, false},
	}

	if len(doc.Assets) != len(want) {
		t.Errorf("len(Assets) = %d, want %d: %+v", len(doc.Assets), len(want), doc.Assets)
	}
	for _, a := range doc.Assets {
		w, ok := want[a.URL]
		if !ok {
			t.Errorf("unexpected asset %s", a.URL)
			continue
		}
		if a.Kind != w.kind || a.ThirdParty != w.thirdParty || a.RenderBlocking != w.renderBlocking {
			t.Errorf("asset %s = {%s third=%v blocking=%v}, want {%s third=%v blocking=%v}",
				a.URL, a.Kind, a.ThirdParty, a.RenderBlocking, w.kind, w.thirdParty, w.renderBlocking)
		}
	}
}

func TestParseDocumentBaseHref(t *testing.T) {
	t.Parallel()

	body := `<html><head><base href="https://static.example.com/v2/">
<link rel="canonical" href="page"></head><body><a href="next">n</a></body></html>`

	doc, err := ParseDocument("https://example.com/x", []byte(body))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	if doc.Canonical != "https://static.example.com/v2/page" {
		t.Errorf("Canonical = %q", doc.Canonical)
	}
	if len(doc.Anchors) != 1 || doc.Anchors[0].Href != "https://static.example.com/v2/next" {
		t.Errorf("Anchors = %+v", doc.Anchors)
	}
}

func TestParseDocumentMetaNoindex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		head string
		want bool
	}{
		{"robots noindex", `<meta name="robots" content="noindex, follow">`, true},
		{"googlebot noindex", `<meta name="googlebot" content="NOINDEX">`, true},
		{"robots none", `<meta name="robots" content="none">`, true},
		{"other bot ignored", `<meta name="bingbot" content="noindex">`, false},
		{"index", `<meta name="robots" content="index">`, false},
		{"absent", ``, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			body := "<html><head>" + tt.head + "</head><body></body></html>"
			doc, err := ParseDocument("https://example.com/", []byte(body))
			if err != nil {
				t.Fatalf("ParseDocument() error = %v", err)
			}
			if doc.Noindex != tt.want {
				t.Errorf("Noindex = %v, want %v", doc.Noindex, tt.want)
			}
		})
	}
}

func TestParseDocumentInvalidURL(t *testing.T) {
	t.Parallel()

	_, err := ParseDocument("http://[::1", []byte("<html></html>"))
	if !errors.Is(err, urlnorm.ErrInvalidURL) {
		t.Errorf("ParseDocument() error = %v, want ErrInvalidURL", err)
	}
}

func TestHeaderNoindex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []string
		want   bool
	}{
		{"plain", []string{"noindex"}, true},
		{"list", []string{"nofollow, noindex"}, true},
		{"agent prefix", []string{"googlebot: noindex"}, true},
		{"second header", []string{"nosnippet", "none"}, true},
		{"unavailable_after", []string{"unavailable_after: 25 Jun 2030 15:00:00 PST"}, false},
		{"nofollow only", []string{"nofollow"}, false},
		{"absent", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := http.Header{}
			for _, v := range tt.values {
				h.Add("X-Robots-Tag", v)
			}
			if got := HeaderNoindex(h); got != tt.want {
				t.Errorf("HeaderNoindex(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}
