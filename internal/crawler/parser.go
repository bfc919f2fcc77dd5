package crawler

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/seoprobe/internal/model"
	"github.com/nao1215/seoprobe/internal/urlnorm"
)

// Declarations are the pointers and directives a page declares about itself.
type Declarations struct {
	// Canonical is the first <link rel="canonical"> href, resolved.
	Canonical string

	// AMP is the first <link rel="amphtml"> href, resolved.
	AMP string

	// Hreflang lists <link rel="alternate" hreflang> entries in document
	// order, resolved.
	Hreflang []model.HreflangAlternate

	// MetaRobots holds the content of every robots/googlebot meta tag,
	// comma-joined.
	MetaRobots string

	// Noindex is true when MetaRobots contains noindex or none.
	Noindex bool
}

// Anchor is a followable link on a page.
type Anchor struct {
	// Href is the resolved absolute link target.
	Href string

	// Text is the whitespace-collapsed link text, falling back to the alt
	// text of a contained image.
	Text string

	// Nofollow is true when rel contains nofollow, ugc or sponsored.
	Nofollow bool
}

// Document is the parsed form of an HTML page.
type Document struct {
	// URL is the page URL.
	URL string

	// Base is the URL relative references resolve against: the <base href>
	// when present, otherwise URL.
	Base *url.URL

	Declarations

	Anchors []Anchor

	// Assets are deduplicated by normalized URL; the first reference wins.
	Assets []model.AssetDescriptor
}

// ParseDocument parses body as HTML served from pageURL.
func ParseDocument(pageURL string, body []byte) (*Document, error) {
	pageBase, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", urlnorm.ErrInvalidURL, err)
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	sel := goquery.NewDocumentFromNode(root)

	doc := &Document{
		URL:  pageURL,
		Base: resolveBase(sel, pageBase),
	}
	doc.Declarations = extractDeclarations(sel, doc.Base)
	doc.Anchors = extractAnchors(sel, doc.Base)
	doc.Assets = extractAssets(sel, doc.Base, pageURL)

	return doc, nil
}

// resolveBase honours the first <base href>.
func resolveBase(sel *goquery.Document, pageBase *url.URL) *url.URL {
	href, ok := sel.Find("base[href]").First().Attr("href")
	if !ok {
		return pageBase
	}
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return pageBase
	}
	return pageBase.ResolveReference(u)
}

func extractDeclarations(sel *goquery.Document, base *url.URL) Declarations {
	var d Declarations
	var robots []string

	sel.Find("link[rel][href]").Each(func(_ int, s *goquery.Selection) {
		rel := relTokens(s)
		href := resolve(base, s.AttrOr("href", ""))
		if href == "" {
			return
		}

		switch {
		case rel["canonical"] && d.Canonical == "":
			d.Canonical = href
		case rel["amphtml"] && d.AMP == "":
			d.AMP = href
		case rel["alternate"]:
			if lang, ok := s.Attr("hreflang"); ok && strings.TrimSpace(lang) != "" {
				d.Hreflang = append(d.Hreflang, model.HreflangAlternate{
					Lang: strings.TrimSpace(lang),
					Href: href,
				})
			}
		}
	})

	sel.Find("meta[name][content]").Each(func(_ int, s *goquery.Selection) {
		switch strings.ToLower(strings.TrimSpace(s.AttrOr("name", ""))) {
		case "robots", "googlebot":
			if c := strings.TrimSpace(s.AttrOr("content", "")); c != "" {
				robots = append(robots, c)
			}
		}
	})

	d.MetaRobots = strings.Join(robots, ", ")
	d.Noindex = DirectivesNoindex(d.MetaRobots)
	return d
}

func extractAnchors(sel *goquery.Document, base *url.URL) []Anchor {
	anchors := make([]Anchor, 0)
	sel.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := resolve(base, s.AttrOr("href", ""))
		if href == "" {
			return
		}

		text := collapseSpace(s.Text())
		if text == "" {
			text = collapseSpace(s.Find("img[alt]").First().AttrOr("alt", ""))
		}

		rel := relTokens(s)
		anchors = append(anchors, Anchor{
			Href:     href,
			Text:     text,
			Nofollow: rel["nofollow"] || rel["ugc"] || rel["sponsored"],
		})
	})
	return anchors
}

// extractAssets walks asset-bearing elements in document order.
func extractAssets(sel *goquery.Document, base *url.URL, pageURL string) []model.AssetDescriptor {
	c := &assetCollector{
		base:    base,
		pageURL: pageURL,
		seen:    make(map[urlnorm.NormalizedURL]struct{}),
		assets:  make([]model.AssetDescriptor, 0),
	}

	sel.Find("link[href], script[src], img[src], video[src], video[poster], audio[src], source[src], embed[src]").
		Each(func(_ int, s *goquery.Selection) {
			inHead := s.ParentsFiltered("head").Length() > 0

			switch goquery.NodeName(s) {
			case "link":
				c.addLink(s)
			case "script":
				_, async := s.Attr("async")
				_, deferred := s.Attr("defer")
				// Module scripts are deferred by default.
				module := strings.EqualFold(strings.TrimSpace(s.AttrOr("type", "")), "module")
				c.add(s.AttrOr("src", ""), model.AssetScript, inHead && !async && !deferred && !module)
			case "img":
				c.add(s.AttrOr("src", ""), model.AssetImage, false)
			case "video":
				c.add(s.AttrOr("src", ""), model.AssetMedia, false)
				c.add(s.AttrOr("poster", ""), model.AssetImage, false)
			case "source":
				if goquery.NodeName(s.Parent()) == "picture" {
					c.add(s.AttrOr("src", ""), model.AssetImage, false)
					return
				}
				c.add(s.AttrOr("src", ""), model.AssetMedia, false)
			case "audio", "embed":
				c.add(s.AttrOr("src", ""), model.AssetMedia, false)
			}
		})

	return c.assets
}

type assetCollector struct {
	base    *url.URL
	pageURL string
	seen    map[urlnorm.NormalizedURL]struct{}
	assets  []model.AssetDescriptor
}

func (c *assetCollector) addLink(s *goquery.Selection) {
	rel := relTokens(s)
	href := s.AttrOr("href", "")

	switch {
	case rel["stylesheet"]:
		c.add(href, model.AssetStylesheet, true)
	case rel["preload"] || rel["modulepreload"]:
		if strings.EqualFold(s.AttrOr("as", ""), "font") {
			c.add(href, model.AssetFont, false)
			return
		}
		c.add(href, model.AssetPreload, false)
	case rel["icon"] || rel["apple-touch-icon"]:
		c.add(href, model.AssetImage, false)
	}
}

func (c *assetCollector) add(raw string, kind model.AssetKind, renderBlocking bool) {
	if strings.TrimSpace(raw) == "" {
		return
	}
	n, err := urlnorm.Normalize(raw, c.base)
	if err != nil {
		return
	}
	if _, ok := c.seen[n]; ok {
		return
	}
	c.seen[n] = struct{}{}

	c.assets = append(c.assets, model.AssetDescriptor{
		URL:            n.String(),
		Kind:           kind,
		ThirdParty:     !urlnorm.SameOrigin(n.String(), c.pageURL),
		RenderBlocking: renderBlocking,
	})
}

// resolve returns href resolved against base, or "" for empty, fragment-only
// and non-navigational references.
func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

// relTokens returns the lower-cased space-separated tokens of rel.
func relTokens(s *goquery.Selection) map[string]bool {
	tokens := make(map[string]bool)
	for _, t := range strings.Fields(strings.ToLower(s.AttrOr("rel", ""))) {
		tokens[t] = true
	}
	return tokens
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
