package model

import (
	"mime"
	"net/http"
	"strings"
)

// MaxPageSize is the default cap on the number of body bytes kept for a
// fetched document.
const MaxPageSize = 5 * 1024 * 1024 // 5 MB

// Page is a fetched document together with its response metadata.
type Page struct {
	// URL is the URL that was requested.
	URL string `json:"url"`

	// FinalURL is the URL after redirects.
	FinalURL string `json:"finalUrl"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status"`

	// Headers contains the response headers.
	Headers http.Header `json:"headers,omitempty"`

	// ContentType is the Content-Type header value.
	ContentType string `json:"contentType,omitempty"`

	// Body is the response body, limited to the fetcher's max body size.
	Body []byte `json:"-"`

	// Truncated is true when Body was cut at the size limit.
	Truncated bool `json:"truncated,omitempty"`
}

// Header returns the first value of the named response header.
func (p *Page) Header(name string) string {
	if p.Headers == nil {
		return ""
	}
	return p.Headers.Get(name)
}

// MediaType returns the lower-cased media type of the page, without
// parameters. An unparseable Content-Type yields "".
func (p *Page) MediaType() string {
	if p.ContentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(p.ContentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}

// IsHTML reports whether the page declares an HTML media type.
// A missing Content-Type is treated as HTML, which is what browsers do for
// documents served without one.
func (p *Page) IsHTML() bool {
	mt := p.MediaType()
	return mt == "" || mt == "text/html" || mt == "application/xhtml+xml"
}

// OK reports whether the response status is 2xx.
func (p *Page) OK() bool {
	return p.StatusCode >= 200 && p.StatusCode < 300
}

// EffectiveURL returns FinalURL when known, otherwise URL.
func (p *Page) EffectiveURL() string {
	if p.FinalURL != "" {
		return p.FinalURL
	}
	return p.URL
}
