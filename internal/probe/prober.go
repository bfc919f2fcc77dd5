package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/sync/semaphore"

	"github.com/nao1215/seoprobe/internal/model"
	"github.com/nao1215/seoprobe/internal/workpool"
)

// maxRedirects limits redirect chains followed by a single request.
const maxRedirects = 10

// Result is the outcome of probing a single URL.
// A failed probe has Status 0 and a non-empty Error.
type Result struct {
	// URL is the probed URL as given.
	URL string `json:"url"`

	// Status is the final HTTP status, 0 when no response arrived.
	Status int `json:"status,omitempty"`

	// FinalURL is the URL after redirects.
	FinalURL string `json:"finalUrl,omitempty"`

	// ContentType is the Content-Type response header.
	ContentType string `json:"contentType,omitempty"`

	// ByteLength is the resource size in bytes, nil when the server did not
	// disclose it.
	ByteLength *int64 `json:"byteLength"`

	// CacheControl is the Cache-Control response header.
	CacheControl string `json:"cacheControl,omitempty"`

	// Method is the request that produced the result: "HEAD" or "GET"
	// for the ranged fallback.
	Method string `json:"method,omitempty"`

	// Error describes a timeout or network failure.
	Error string `json:"error,omitempty"`
}

// OK reports whether a response arrived with a status below 400.
func (r Result) OK() bool {
	return r.Error == "" && r.Status > 0 && r.Status < 400
}

// Prober performs HEAD-first probes and capped document fetches.
// A Prober is safe for concurrent use. At most Config.MaxInFlight requests
// are open at once, whatever the number of callers.
type Prober struct {
	client *http.Client
	cfg    Config
	logger *slog.Logger
	slots  *semaphore.Weighted
}

// Option configures a Prober.
type Option func(*Prober)

// WithTransport replaces the transport of the Prober's HTTP client.
func WithTransport(rt http.RoundTripper) Option {
	return func(p *Prober) {
		if rt != nil {
			p.client.Transport = rt
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prober) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Prober from cfg.
//
// The SOCKS5 dialer is created here when Config.ProxyAddress is set, but
// no connection is attempted until the first request.
func New(cfg Config, opts ...Option) (*Prober, error) {
	cfg = cfg.normalized()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	client, err := newHTTPClient(cfg)
	if err != nil {
		return nil, err
	}

	p := &Prober{
		client: client,
		cfg:    cfg,
		logger: slog.Default(),
		slots:  semaphore.NewWeighted(int64(cfg.MaxInFlight)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the effective configuration.
func (p *Prober) Config() Config {
	return p.cfg
}

// newHTTPClient builds the client used for every request. There is no
// client-level timeout; each request carries its own deadline.
func newHTTPClient(cfg Config) (*http.Client, error) {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        64,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: cfg.PerRequestTimeout,
	}

	if cfg.ProxyAddress != "" {
		dialer, err := proxy.SOCKS5("tcp", cfg.ProxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	}

	return &http.Client{
		Transport: transport,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// Probe checks rawURL with HEAD, falling back to a one-byte ranged GET when
// the server rejects HEAD. Network failures are retried up to
// Config.MaxRetries times; HTTP error statuses are not retried.
func (p *Prober) Probe(ctx context.Context, rawURL string) Result {
	var lastErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		res, err := p.probeOnce(ctx, rawURL)
		if err == nil {
			return res
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		p.logger.Debug("probe attempt failed",
			slog.String("url", rawURL),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))
	}

	return Result{
		URL:   rawURL,
		Error: describeError(lastErr, p.cfg.PerRequestTimeout),
	}
}

// ProbeMany probes every URL with at most concurrency requests in flight
// and returns results in input order.
func (p *Prober) ProbeMany(ctx context.Context, urls []string, concurrency int) []Result {
	return workpool.Map(ctx, urls, concurrency, func(ctx context.Context, _ int, u string) Result {
		return p.Probe(ctx, u)
	})
}

func (p *Prober) probeOnce(ctx context.Context, rawURL string) (Result, error) {
	resp, err := p.do(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return Result{}, err
	}
	_ = resp.Body.Close() //nolint:errcheck // HEAD responses have no body

	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		return p.rangeProbe(ctx, rawURL)
	}

	res := resultFromResponse(rawURL, resp)
	res.Method = http.MethodHead
	res.ByteLength = contentLength(resp)
	return res, nil
}

// rangeProbe requests the first byte of rawURL and reads the total size
// from Content-Range. The response body is discarded unread.
func (p *Prober) rangeProbe(ctx context.Context, rawURL string) (Result, error) {
	resp, err := p.do(ctx, http.MethodGet, rawURL, map[string]string{"Range": "bytes=0-0"})
	if err != nil {
		return Result{}, err
	}
	_ = resp.Body.Close() //nolint:errcheck // body is intentionally not read

	res := resultFromResponse(rawURL, resp)
	res.Method = http.MethodGet
	if resp.StatusCode == http.StatusPartialContent {
		res.ByteLength = totalFromContentRange(resp.Header.Get("Content-Range"))
	} else {
		res.ByteLength = contentLength(resp)
	}
	return res, nil
}

// Fetch retrieves rawURL with GET and returns the page with its body capped
// at Config.MaxBodySize. The returned error wraps ErrUpstream and is only
// non-nil when no response arrived.
func (p *Prober) Fetch(ctx context.Context, rawURL string) (*model.Page, error) {
	var lastErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		page, err := p.fetchOnce(ctx, rawURL)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		p.logger.Debug("fetch attempt failed",
			slog.String("url", rawURL),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))
	}
	return nil, fmt.Errorf("%w: %s", ErrUpstream, describeError(lastErr, p.cfg.PerRequestTimeout))
}

func (p *Prober) fetchOnce(ctx context.Context, rawURL string) (*model.Page, error) {
	if err := p.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.slots.Release(1)

	ctx, cancel := context.WithTimeout(ctx, p.cfg.PerRequestTimeout)
	defer cancel()

	req, err := p.newRequest(ctx, http.MethodGet, rawURL, map[string]string{
		"Accept": "text/html,application/xhtml+xml,application/xml;q=0.9,text/plain;q=0.8,*/*;q=0.5",
	})
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.cfg.MaxBodySize+1))
	if err != nil {
		return nil, err
	}

	page := &model.Page{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		Headers:     resp.Header,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}
	if int64(len(body)) > p.cfg.MaxBodySize {
		page.Body = body[:p.cfg.MaxBodySize]
		page.Truncated = true
	}
	return page, nil
}

// do sends a single bodiless request with the per-request timeout applied.
// The timeout context and the in-flight slot are released when the response
// body is closed.
func (p *Prober) do(ctx context.Context, method, rawURL string, extra map[string]string) (*http.Response, error) {
	if err := p.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, p.cfg.PerRequestTimeout)
	release := func() {
		cancel()
		p.slots.Release(1)
	}

	req, err := p.newRequest(ctx, method, rawURL, extra)
	if err != nil {
		release()
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		release()
		return nil, err
	}
	resp.Body = &releaseOnClose{ReadCloser: resp.Body, release: release}
	return resp, nil
}

func (p *Prober) newRequest(ctx context.Context, method, rawURL string, extra map[string]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", p.cfg.UserAgent)
	for k, v := range p.cfg.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}
	return req, nil
}

type releaseOnClose struct {
	io.ReadCloser
	release func()
	once    sync.Once
}

func (c *releaseOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.once.Do(c.release)
	return err
}

func resultFromResponse(rawURL string, resp *http.Response) Result {
	return Result{
		URL:          rawURL,
		Status:       resp.StatusCode,
		FinalURL:     resp.Request.URL.String(),
		ContentType:  resp.Header.Get("Content-Type"),
		CacheControl: resp.Header.Get("Cache-Control"),
	}
}

// contentLength returns the declared body size. The header is read directly
// because HEAD responses may report ContentLength as -1.
func contentLength(resp *http.Response) *int64 {
	if v := strings.TrimSpace(resp.Header.Get("Content-Length")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			return &n
		}
	}
	if resp.ContentLength >= 0 && resp.Request != nil && resp.Request.Method != http.MethodHead {
		n := resp.ContentLength
		return &n
	}
	return nil
}

// totalFromContentRange parses the complete length from a header such as
// "bytes 0-0/1234". An unknown length ("*") yields nil.
func totalFromContentRange(v string) *int64 {
	_, total, ok := strings.Cut(v, "/")
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(total), 10, 64)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// describeError turns a transport error into the message stored in results.
func describeError(err error, timeout time.Duration) string {
	if err == nil {
		return "unknown error"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("timeout after %s", timeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Sprintf("timeout after %s", timeout)
	}
	if errors.Is(err, context.Canceled) {
		return "request cancelled"
	}
	return err.Error()
}
