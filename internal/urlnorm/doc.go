// Package urlnorm provides the canonical string form used to compare URLs.
//
// Every component that needs to decide whether two URLs point to the same
// resource ("is this the canonical target", "has this sitemap already been
// visited") compares NormalizedURL values produced by Normalize rather than
// raw strings.
//
// # Rules
//
// Normalize applies, in order:
//  1. resolve the input relative to an optional base URL
//  2. lower-case the scheme and the host
//  3. drop the fragment
//  4. drop the default port for the scheme (80 for http, 443 for https)
//  5. strip trailing slashes on non-root paths (an empty path becomes "/")
//
// The result is idempotent: Normalize(string(Normalize(u))) == Normalize(u).
//
// # Usage
//
//	n, err := urlnorm.Normalize("HTTP://Example.com:80/a/#top", nil)
//	// n == "http://example.com/a"
package urlnorm
