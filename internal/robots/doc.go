// Package robots evaluates robots-exclusion files for a single audit.
//
// Parse builds a RuleSet from the wildcard ("*") user-agent group of a
// robots.txt file. Rules that appear before any User-agent line are kept as
// an implicit group so that malformed files still yield usable rules.
// Sitemap directives are collected separately and never matched.
//
// Match applies longest-prefix matching: among the rules whose path prefix
// matches the candidate path, the longest prefix wins. When no rule matches,
// or an allow and a disallow rule of the same length both match, the
// decision is Unspecified, which callers treat as allowed.
//
// AgentAllowed answers the same question for a named crawler (for example
// Googlebot) with full robots.txt group semantics, including wildcards and
// agent-specific groups.
package robots
