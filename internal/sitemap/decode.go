package sitemap

import (
	"bytes"
	"compress/gzip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/nao1215/seoprobe/internal/model"
)

// ErrParse is returned for documents that are not well-formed sitemap XML.
var ErrParse = errors.New("sitemap parse error")

// maxDecompressedSize caps the size of a decompressed gzip sitemap. The
// protocol limits an uncompressed sitemap to 50MB.
const maxDecompressedSize = 50 * 1024 * 1024

// Kind is the root element type of a sitemap document.
type Kind string

const (
	KindIndex   Kind = "index"
	KindURLSet  Kind = "urlset"
	KindUnknown Kind = "unknown"
)

// Document is a decoded sitemap.
type Document struct {
	// Kind is the document type.
	Kind Kind

	// Root is the local name of the root element.
	Root string

	// Children lists the child sitemap locations of an index.
	Children []string

	// URLs lists the page entries of a url-set.
	URLs []model.SitemapURL
}

type xmlURLSet struct {
	URLs []xmlURL `xml:"url"`
}

type xmlURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

type xmlSitemapIndex struct {
	Sitemaps []xmlSitemap `xml:"sitemap"`
}

type xmlSitemap struct {
	Loc string `xml:"loc"`
}

// Decode parses body as a sitemap document. Entries with an empty loc are
// dropped; loc values are trimmed but not otherwise normalized.
func Decode(body []byte) (*Document, error) {
	body, err := gunzipIfNeeded(body)
	if err != nil {
		return nil, err
	}

	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel
	start, err := rootElement(dec)
	if err != nil {
		return nil, err
	}

	doc := &Document{Root: start.Name.Local}

	switch strings.ToLower(start.Name.Local) {
	case "sitemapindex":
		var idx xmlSitemapIndex
		if err := dec.DecodeElement(&idx, &start); err != nil {
			return nil, fmt.Errorf("%w: sitemap index: %w", ErrParse, err)
		}
		doc.Kind = KindIndex
		for _, s := range idx.Sitemaps {
			if loc := strings.TrimSpace(s.Loc); loc != "" {
				doc.Children = append(doc.Children, loc)
			}
		}
	case "urlset":
		var set xmlURLSet
		if err := dec.DecodeElement(&set, &start); err != nil {
			return nil, fmt.Errorf("%w: urlset: %w", ErrParse, err)
		}
		doc.Kind = KindURLSet
		for _, u := range set.URLs {
			loc := strings.TrimSpace(u.Loc)
			if loc == "" {
				continue
			}
			doc.URLs = append(doc.URLs, model.SitemapURL{
				Loc:     loc,
				LastMod: strings.TrimSpace(u.LastMod),
			})
		}
	default:
		doc.Kind = KindUnknown
	}

	return doc, nil
}

// rootElement advances dec to the first start element.
func rootElement(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return xml.StartElement{}, fmt.Errorf("%w: no root element", ErrParse)
		}
		if err != nil {
			return xml.StartElement{}, fmt.Errorf("%w: %w", ErrParse, err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start, nil
		}
	}
}

// gunzipIfNeeded decompresses body when it starts with the gzip magic bytes.
func gunzipIfNeeded(body []byte) ([]byte, error) {
	if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
		return body, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %w", ErrParse, err)
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, maxDecompressedSize))
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %w", ErrParse, err)
	}
	return out, nil
}
