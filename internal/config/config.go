package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/seoprobe/internal/probe"
	"github.com/nao1215/seoprobe/internal/urlnorm"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "seoprobe"

	// DefaultTimeout is the per-request timeout. Individual probes never
	// wait longer than this.
	DefaultTimeout = probe.DefaultTimeout

	// DefaultAuditTimeout caps the duration of one whole audit. Probes
	// still in flight when it expires are abandoned and the report is
	// marked as timed out.
	DefaultAuditTimeout = 2 * time.Minute

	// DefaultConcurrency is the worker pool size of each fan-out stage.
	DefaultConcurrency = probe.DefaultConcurrency

	// DefaultMaxRetries is the retry budget for network failures.
	DefaultMaxRetries = probe.DefaultMaxRetries

	// DefaultUserAgent identifies seoprobe in HTTP requests.
	DefaultUserAgent = probe.DefaultUserAgent

	// DefaultMaxBodySize limits the bytes read from any fetched document.
	DefaultMaxBodySize = probe.DefaultMaxBodySize

	// DefaultSitemapMaxFiles bounds the sitemap documents fetched per audit.
	DefaultSitemapMaxFiles = 10

	// DefaultSitemapMaxURLs bounds the URLs collected from sitemaps.
	DefaultSitemapMaxURLs = 5000

	// DefaultSampleSize is the number of pages scanned for inlinks.
	DefaultSampleSize = 20

	// DefaultMaxAssets is the number of page assets probed.
	DefaultMaxAssets = 60

	// DefaultBatchSize is the number of URLs audited concurrently.
	DefaultBatchSize = 4

	// DefaultRobotsAgent is the crawler checked against robots.txt in
	// addition to the wildcard group.
	DefaultRobotsAgent = "Googlebot"

	// DefaultListenAddress is where "seoprobe serve" listens.
	DefaultListenAddress = "127.0.0.1:8080"
)

// Config holds all configuration options for seoprobe.
// It is populated from CLI flags and passed down explicitly.
type Config struct {
	// Timeout bounds each individual HTTP request.
	Timeout time.Duration

	// AuditTimeout bounds a whole audit. Zero disables the outer deadline.
	AuditTimeout time.Duration

	// Concurrency is the worker pool size used by every stage.
	Concurrency int

	// MaxRetries is the retry budget for network failures (0 or 1).
	MaxRetries int

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// ProxyAddress is an optional SOCKS5 proxy in host:port form.
	ProxyAddress string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// SitemapMaxFiles and SitemapMaxURLs bound sitemap resolution.
	SitemapMaxFiles int
	SitemapMaxURLs  int

	// SampleSize is the number of sitemap pages scanned for inlinks.
	SampleSize int

	// MaxAssets is the number of page assets probed.
	MaxAssets int

	// RobotsAgent is the named crawler checked against robots.txt.
	// Empty disables the check.
	RobotsAgent string

	// BatchSize is the number of URLs audited concurrently.
	BatchSize int

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is an explicit path to the YAML configuration file.
	// When empty, .seoprobe is searched in the current and home directories.
	ConfigFilePath string

	// SiteConfigs holds the per-site settings loaded from the config file.
	SiteConfigs *File

	// JSONReport and MarkdownReport select the report format. Both false
	// selects the human-readable text report.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile is the output path for the report; empty means stdout.
	ReportFile string

	// Targets are the URLs to audit.
	Targets []string

	// SaveToDB stores audit reports in the history database.
	SaveToDB bool

	// DBDir is the directory of the history database. Defaults to the XDG
	// data directory.
	DBDir string

	// ListenAddress is the address of the HTTP service.
	ListenAddress string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:         DefaultTimeout,
		AuditTimeout:    DefaultAuditTimeout,
		Concurrency:     DefaultConcurrency,
		MaxRetries:      DefaultMaxRetries,
		UserAgent:       DefaultUserAgent,
		MaxBodySize:     DefaultMaxBodySize,
		SitemapMaxFiles: DefaultSitemapMaxFiles,
		SitemapMaxURLs:  DefaultSitemapMaxURLs,
		SampleSize:      DefaultSampleSize,
		MaxAssets:       DefaultMaxAssets,
		RobotsAgent:     DefaultRobotsAgent,
		BatchSize:       DefaultBatchSize,
		ListenAddress:   DefaultListenAddress,
	}
}

// XDGDataDir returns the XDG data directory for seoprobe, where the audit
// history database lives.
// On Linux: ~/.local/share/seoprobe
// On macOS: ~/Library/Application Support/seoprobe
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks the options that do not depend on the command.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.AuditTimeout < 0 {
		return ErrInvalidAuditTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxRetries < 0 || c.MaxRetries > probe.MaxRetryBudget {
		return ErrInvalidMaxRetries
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.SitemapMaxFiles <= 0 || c.SitemapMaxURLs <= 0 {
		return ErrInvalidSitemapBounds
	}
	if c.SampleSize <= 0 || c.MaxAssets <= 0 {
		return ErrInvalidSampleSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.ProxyAddress != "" && !probe.IsValidProxyAddress(c.ProxyAddress) {
		return ErrInvalidProxyAddress
	}
	return nil
}

// ValidateTargets checks that at least one target was given and that each
// is an absolute http(s) URL. The returned error wraps urlnorm.ErrInvalidURL
// for a malformed target.
func (c *Config) ValidateTargets() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	for _, t := range c.Targets {
		if _, err := urlnorm.Normalize(t, nil); err != nil {
			return err
		}
	}
	return nil
}

// Site returns the merged configuration file settings for target's host.
// Without a configuration file the zero SiteConfig is returned.
func (c *Config) Site(target string) SiteConfig {
	if c.SiteConfigs == nil {
		return SiteConfig{}
	}
	host := ""
	if u, err := url.Parse(strings.TrimSpace(target)); err == nil {
		host = strings.ToLower(u.Hostname())
	}
	return c.SiteConfigs.GetSiteConfig(host)
}

// ProbeConfig returns the prober configuration for auditing target, with
// the site's headers and cookie from the configuration file applied.
func (c *Config) ProbeConfig(target string) probe.Config {
	site := c.Site(target)

	headers := make(map[string]string, len(site.Headers)+1)
	for k, v := range site.Headers {
		headers[k] = v
	}
	if site.Cookie != "" {
		headers["Cookie"] = site.Cookie
	}

	return probe.Config{
		UserAgent:         c.UserAgent,
		PerRequestTimeout: c.Timeout,
		MaxRetries:        c.MaxRetries,
		ProxyAddress:      c.ProxyAddress,
		MaxBodySize:       c.MaxBodySize,
		Headers:           headers,
		MaxInFlight:       c.Concurrency,
	}
}
