package robots

import (
	"context"
	"fmt"

	"github.com/nao1215/seoprobe/internal/model"
)

// Path is the well-known location of robots.txt.
const Path = "/robots.txt"

// maxBodyBytes limits the robots.txt bytes that are parsed.
const maxBodyBytes = 512 * 1024 // 512 KB

// Fetcher retrieves a document.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*model.Page, error)
}

// File is a fetched robots.txt.
type File struct {
	// URL is the robots.txt URL.
	URL string

	// Status is the HTTP status of the fetch.
	Status int

	// Body is the raw file, empty unless the fetch succeeded.
	Body []byte

	// Rules is the parsed wildcard rule set. It is empty (allow all) when
	// the file is missing or returned an error status.
	Rules *RuleSet
}

// Found reports whether robots.txt was retrieved with a 2xx status.
func (f *File) Found() bool {
	return f.Status >= 200 && f.Status < 300
}

// Fetch retrieves and parses robots.txt for origin. A missing file or an
// error status yields an empty rule set; the returned error is non-nil only
// when no response arrived.
func Fetch(ctx context.Context, fetcher Fetcher, origin string) (*File, error) {
	f := &File{URL: origin + Path, Rules: &RuleSet{}}

	page, err := fetcher.Fetch(ctx, f.URL)
	if err != nil {
		return f, fmt.Errorf("robots: fetch %s: %w", f.URL, err)
	}

	f.Status = page.StatusCode
	if !f.Found() {
		return f, nil
	}

	body := page.Body
	if len(body) > maxBodyBytes {
		body = body[:maxBodyBytes]
	}
	f.Body = body
	f.Rules = Parse(string(body))
	return f, nil
}
