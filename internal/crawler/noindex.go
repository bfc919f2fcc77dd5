package crawler

import (
	"net/http"
	"strings"
)

// DirectivesNoindex reports whether a comma-separated robots directive list
// contains noindex (or none, which implies it). A directive may carry an
// agent prefix such as "googlebot: noindex".
func DirectivesNoindex(directives string) bool {
	for _, d := range strings.Split(directives, ",") {
		d = strings.ToLower(strings.TrimSpace(d))
		if i := strings.LastIndexByte(d, ':'); i >= 0 {
			d = strings.TrimSpace(d[i+1:])
		}
		if d == "noindex" || d == "none" {
			return true
		}
	}
	return false
}

// HeaderNoindex reports whether any X-Robots-Tag header carries noindex.
func HeaderNoindex(h http.Header) bool {
	for _, v := range h.Values("X-Robots-Tag") {
		if DirectivesNoindex(v) {
			return true
		}
	}
	return false
}
