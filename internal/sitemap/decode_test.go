package sitemap

import (
	"bytes"
	"compress/gzip"
	"errors"
	"testing"
)

const urlsetXML = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc> https://example.com/a </loc><lastmod>2024-01-15</lastmod></url>
  <url><loc>https://example.com/b</loc></url>
  <url><loc></loc></url>
</urlset>`

const indexXML = `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>https://example.com/sitemap-posts.xml</loc></sitemap>
  <sitemap><loc>https://example.com/sitemap-pages.xml</loc></sitemap>
</sitemapindex>`

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("urlset", func(t *testing.T) {
		t.Parallel()

		doc, err := Decode([]byte(urlsetXML))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if doc.Kind != KindURLSet {
			t.Fatalf("Kind = %s, want urlset", doc.Kind)
		}
		if len(doc.URLs) != 2 {
			t.Fatalf("len(URLs) = %d, want 2", len(doc.URLs))
		}
		if doc.URLs[0].Loc != "https://example.com/a" || doc.URLs[0].LastMod != "2024-01-15" {
			t.Errorf("URLs[0] = %+v", doc.URLs[0])
		}
	})

	t.Run("index", func(t *testing.T) {
		t.Parallel()

		doc, err := Decode([]byte(indexXML))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if doc.Kind != KindIndex {
			t.Fatalf("Kind = %s, want index", doc.Kind)
		}
		if len(doc.Children) != 2 || doc.Children[1] != "https://example.com/sitemap-pages.xml" {
			t.Errorf("Children = %v", doc.Children)
		}
	})

	t.Run("unknown root", func(t *testing.T) {
		t.Parallel()

		doc, err := Decode([]byte(`<rss version="2.0"><channel/></rss>`))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if doc.Kind != KindUnknown || doc.Root != "rss" {
			t.Errorf("Kind = %s, Root = %s", doc.Kind, doc.Root)
		}
	})

	t.Run("gzip", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write([]byte(urlsetXML)); err != nil {
			t.Fatal(err)
		}
		if err := zw.Close(); err != nil {
			t.Fatal(err)
		}

		doc, err := Decode(buf.Bytes())
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if doc.Kind != KindURLSet || len(doc.URLs) != 2 {
			t.Errorf("Kind = %s, URLs = %d", doc.Kind, len(doc.URLs))
		}
	})

	t.Run("latin-1 declaration", func(t *testing.T) {
		t.Parallel()

		body := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n<urlset><url><loc>https://example.com/caf\xe9</loc></url></urlset>")
		doc, err := Decode(body)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if len(doc.URLs) != 1 || doc.URLs[0].Loc != "https://example.com/café" {
			t.Errorf("URLs = %+v", doc.URLs)
		}
	})

	errorCases := map[string]string{
		"empty":          "",
		"not xml":        "this is plain text",
		"truncated":      `<urlset><url><loc>https://example.com/a</loc>`,
		"mismatched tag": `<urlset><url></urlset>`,
		"bad gzip":       "\x1f\x8bnot really gzip",
	}
	for name, body := range errorCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := Decode([]byte(body))
			if !errors.Is(err, ErrParse) {
				t.Errorf("Decode() error = %v, want ErrParse", err)
			}
		})
	}
}
