package config

import "errors"

// Configuration validation errors returned by Config.Validate and
// Config.ValidateTargets. Callers match them with errors.Is.
var (
	// ErrNoTarget is returned when no URL to audit was given.
	ErrNoTarget = errors.New("no target specified: provide a URL or use --list")

	// ErrInvalidTimeout is returned when the per-request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidAuditTimeout is returned when the audit timeout is negative.
	// Zero disables it.
	ErrInvalidAuditTimeout = errors.New("invalid audit timeout: must be non-negative")

	// ErrInvalidConcurrency is returned when the worker pool size is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMaxRetries is returned when the retry budget is outside 0-1.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be 0 or 1")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Zero selects the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidSitemapBounds is returned when a sitemap bound is not positive.
	ErrInvalidSitemapBounds = errors.New("invalid sitemap bounds: max files and max URLs must be positive")

	// ErrInvalidSampleSize is returned when the inlink sample size or the
	// asset cap is not positive.
	ErrInvalidSampleSize = errors.New("invalid sample size: sample and max assets must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidProxyAddress is returned when the proxy is not host:port.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: expected host:port")
)
