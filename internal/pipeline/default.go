package pipeline

import (
	"log/slog"

	"github.com/nao1215/seoprobe/internal/assets"
	"github.com/nao1215/seoprobe/internal/crawler"
	"github.com/nao1215/seoprobe/internal/probe"
	"github.com/nao1215/seoprobe/internal/reciprocity"
	"github.com/nao1215/seoprobe/internal/sitemap"
)

// DefaultRobotsAgent is the crawler checked in addition to the wildcard
// robots.txt group.
const DefaultRobotsAgent = "Googlebot"

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// Concurrency bounds the requests in flight for one audit, summed over
	// every stage.
	Concurrency int

	// SitemapMaxFiles bounds the number of sitemap documents fetched.
	SitemapMaxFiles int

	// SitemapMaxURLs bounds the number of URLs collected from sitemaps.
	SitemapMaxURLs int

	// SampleSize is the number of sitemap pages scanned for inlinks.
	SampleSize int

	// IgnorePatterns exclude inlink candidates by path glob.
	IgnorePatterns []string

	// MaxAssets bounds the number of assets probed.
	MaxAssets int

	// HreflangSample bounds the number of hreflang alternates fetched.
	HreflangSample int

	// RobotsAgent is the named crawler checked against robots.txt.
	// Empty disables the check.
	RobotsAgent string

	// Logger is handed to every stage.
	Logger *slog.Logger
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineConcurrency sets the in-flight request bound of an audit.
func WithPipelineConcurrency(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		if n > 0 {
			c.Concurrency = n
		}
	}
}

// WithPipelineSitemapBounds sets the sitemap traversal bounds.
func WithPipelineSitemapBounds(maxFiles, maxURLs int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		if maxFiles > 0 {
			c.SitemapMaxFiles = maxFiles
		}
		if maxURLs > 0 {
			c.SitemapMaxURLs = maxURLs
		}
	}
}

// WithPipelineSampleSize sets the inlink sample size.
func WithPipelineSampleSize(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		if n > 0 {
			c.SampleSize = n
		}
	}
}

// WithPipelineIgnorePatterns sets path globs excluded from inlink sampling.
func WithPipelineIgnorePatterns(patterns []string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.IgnorePatterns = patterns
	}
}

// WithPipelineMaxAssets sets the asset probe cap.
func WithPipelineMaxAssets(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		if n > 0 {
			c.MaxAssets = n
		}
	}
}

// WithPipelineHreflangSample sets the number of hreflang alternates fetched.
func WithPipelineHreflangSample(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		if n > 0 {
			c.HreflangSample = n
		}
	}
}

// WithPipelineRobotsAgent sets the named crawler checked against
// robots.txt. An empty agent disables the check.
func WithPipelineRobotsAgent(agent string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.RobotsAgent = agent
	}
}

// WithPipelineLogger sets the logger handed to every stage.
func WithPipelineLogger(logger *slog.Logger) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Logger = logger
	}
}

// NewDefaultPipelineConfig returns the configuration used when no option
// overrides it.
func NewDefaultPipelineConfig(opts ...DefaultPipelineOption) *DefaultPipelineConfig {
	cfg := &DefaultPipelineConfig{
		Concurrency:     probe.DefaultConcurrency,
		SitemapMaxFiles: sitemap.DefaultMaxFiles,
		SitemapMaxURLs:  sitemap.DefaultMaxURLs,
		SampleSize:      crawler.DefaultSampleSize,
		MaxAssets:       assets.DefaultMaxAssets,
		HreflangSample:  reciprocity.DefaultHreflangSample,
		RobotsAgent:     DefaultRobotsAgent,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}

// DefaultPipeline creates the touchpoints audit pipeline:
//
//	fetch_page -> robots -> sitemap -> reciprocity+inlinks+assets -> conflicts
//
// Robots and sitemap run first because the sitemap candidates come from
// robots.txt and the inlink candidates come from the sitemaps. The three
// stages after them are independent and run concurrently. All stages share
// one request budget of Concurrency slots.
func DefaultPipeline(prober Prober, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	cfg := NewDefaultPipelineConfig(configOpts...)
	p := New(append([]Option{WithLogger(cfg.Logger)}, pipelineOpts...)...)
	prober = newLimitedProber(prober, cfg.Concurrency)

	resolver := sitemap.NewResolver(prober,
		sitemap.WithConcurrency(cfg.Concurrency),
		sitemap.WithLogger(cfg.Logger),
	)
	verifier := reciprocity.NewVerifier(prober,
		reciprocity.WithHreflangSample(cfg.HreflangSample),
		reciprocity.WithConcurrency(cfg.Concurrency),
		reciprocity.WithLogger(cfg.Logger),
	)
	sampler := crawler.NewSampler(prober,
		crawler.WithSamplerConcurrency(cfg.Concurrency),
		crawler.WithIgnorePatterns(cfg.IgnorePatterns),
		crawler.WithSamplerLogger(cfg.Logger),
	)
	auditor := assets.NewAuditor(prober, assets.WithLogger(cfg.Logger))

	p.AddSteps(
		NewFetchPageStep(prober),
		NewRobotsStep(prober, cfg.RobotsAgent, cfg.Logger),
		NewSitemapStep(resolver, cfg.SitemapMaxFiles, cfg.SitemapMaxURLs),
		NewParallelStep(
			NewReciprocityStep(verifier),
			NewInlinkStep(sampler, cfg.SampleSize),
			NewAssetStep(auditor, cfg.MaxAssets, cfg.Concurrency),
		),
		NewConflictStep(),
	)
	return p
}
