package config

import "strings"

// SiteConfig holds the settings for audits of a single host.
type SiteConfig struct {
	// Cookie is sent with every request to the site, for staging
	// environments behind a login.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// IgnorePatterns are glob patterns matched against the URL path.
	// Matching sitemap URLs are never used as inlink candidates.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// SampleSize overrides the inlink sample size. Zero keeps the flag value.
	SampleSize int `yaml:"sampleSize,omitempty"`

	// MaxAssets overrides the asset cap. Zero keeps the flag value.
	MaxAssets int `yaml:"maxAssets,omitempty"`
}

// File represents the structure of the .seoprobe configuration file.
type File struct {
	// Sites maps hosts (e.g. "www.example.com", no scheme or port) to
	// their configurations.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults applies to all sites unless overridden per site.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for host, with the site-specific
// settings merged over the defaults. Header maps are merged key by key; the
// returned config never shares maps with cf.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	result.Headers = copyHeaders(cf.Defaults.Headers)

	siteConfig, ok := cf.Sites[normalizeHost(host)]
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(siteConfig.Headers))
		}
		for k, v := range siteConfig.Headers {
			result.Headers[k] = v
		}
	}
	if len(siteConfig.IgnorePatterns) > 0 {
		result.IgnorePatterns = siteConfig.IgnorePatterns
	}
	if siteConfig.SampleSize > 0 {
		result.SampleSize = siteConfig.SampleSize
	}
	if siteConfig.MaxAssets > 0 {
		result.MaxAssets = siteConfig.MaxAssets
	}
	return result
}

func copyHeaders(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

func normalizeHost(host string) string {
	return strings.ToLower(strings.TrimSpace(host))
}
