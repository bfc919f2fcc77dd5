package sitemap

import "github.com/nao1215/seoprobe/internal/urlnorm"

// Conventional sitemap locations tried for every origin.
var conventionalPaths = []string{
	"/sitemap.xml",
	"/sitemap_index.xml",
}

// Candidates returns the sitemap URLs to try for origin: the declared ones
// (typically robots.txt Sitemap directives) first, then the conventional
// locations. Duplicates are removed by normalized form.
func Candidates(origin string, declared []string) []string {
	seen := make(map[urlnorm.NormalizedURL]struct{})
	out := make([]string, 0, len(declared)+len(conventionalPaths))

	add := func(raw string) {
		n, err := urlnorm.Normalize(raw, nil)
		if err != nil {
			return
		}
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		out = append(out, n.String())
	}

	for _, d := range declared {
		add(d)
	}
	for _, p := range conventionalPaths {
		add(origin + p)
	}
	return out
}
