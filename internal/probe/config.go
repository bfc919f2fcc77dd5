package probe

import (
	"errors"
	"net"
	"strconv"
	"time"
)

// Default request settings.
const (
	// DefaultUserAgent identifies seoprobe in HTTP requests so site operators
	// can recognise audit traffic in their logs.
	DefaultUserAgent = "seoprobe/1.0 (+https://github.com/nao1215/seoprobe)"

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxRetries is the default retry budget for network failures.
	DefaultMaxRetries = 1

	// MaxRetryBudget is the largest accepted retry budget. Audits fan out to
	// many probes, so retries multiply wall-clock time quickly.
	MaxRetryBudget = 1

	// DefaultMaxBodySize caps the bytes read by Fetch.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultConcurrency is the default worker pool size for ProbeMany.
	DefaultConcurrency = 6
)

// Errors returned by this package.
var (
	// ErrUpstream wraps timeouts and connection failures.
	ErrUpstream = errors.New("upstream error")

	// ErrInvalidProxyAddress is returned when Config.ProxyAddress is not in
	// host:port form.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrInvalidTimeout is returned when Config.PerRequestTimeout is not positive.
	ErrInvalidTimeout = errors.New("invalid per-request timeout: must be positive")
)

// Config holds the explicit client configuration passed into a Prober.
type Config struct {
	// UserAgent is sent with every request.
	UserAgent string

	// PerRequestTimeout bounds each individual request, including reading
	// the body for Fetch.
	PerRequestTimeout time.Duration

	// MaxRetries is the number of extra attempts after a network failure.
	// Values above MaxRetryBudget are clamped.
	MaxRetries int

	// ProxyAddress is an optional SOCKS5 proxy in host:port form.
	ProxyAddress string

	// MaxBodySize caps the bytes read by Fetch. Zero means DefaultMaxBodySize.
	MaxBodySize int64

	// Headers are extra request headers (for example Cookie or
	// Authorization for staging sites).
	Headers map[string]string

	// MaxInFlight bounds the requests a Prober has open at once, across
	// every caller sharing it. Zero means DefaultConcurrency.
	MaxInFlight int
}

// DefaultConfig returns a Config with the package defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent:         DefaultUserAgent,
		PerRequestTimeout: DefaultTimeout,
		MaxRetries:        DefaultMaxRetries,
		MaxBodySize:       DefaultMaxBodySize,
		MaxInFlight:       DefaultConcurrency,
	}
}

// normalized returns a copy of c with zero values replaced by defaults and
// the retry budget clamped.
func (c Config) normalized() Config {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = DefaultMaxBodySize
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = DefaultConcurrency
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.MaxRetries > MaxRetryBudget {
		c.MaxRetries = MaxRetryBudget
	}
	return c
}

// validate checks the fields that cannot be defaulted.
func (c Config) validate() error {
	if c.PerRequestTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.ProxyAddress != "" && !IsValidProxyAddress(c.ProxyAddress) {
		return ErrInvalidProxyAddress
	}
	return nil
}

// IsValidProxyAddress reports whether address is host:port with a non-empty
// host and a port in 1-65535.
func IsValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" || port == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}
