package routing

import "strings"

var (
	defaultPrefixes = []string{"/api/", "/static/", "/_next/"}
	defaultExact    = []string{"/api", "/favicon.ico", "/healthz", "/robots.txt"}
	defaultSuffixes = []string{".svg", ".png", ".jpg", ".jpeg", ".gif", ".webp", ".ico", ".css", ".js"}
)

// Excluder holds the infrastructure paths the host rewrite must skip
type Excluder struct {
	prefixes []string
	exact    map[string]bool
	suffixes []string
}

// NewExcluder returns the default exclusion list extended with extra path
// prefixes. Blank entries are ignored.
func NewExcluder(extraPrefixes ...string) *Excluder {
	e := &Excluder{
		prefixes: append([]string(nil), defaultPrefixes...),
		exact:    make(map[string]bool, len(defaultExact)),
		suffixes: defaultSuffixes,
	}
	for _, p := range defaultExact {
		e.exact[p] = true
	}
	for _, p := range extraPrefixes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		e.prefixes = append(e.prefixes, p)
	}
	return e
}

// Excluded reports whether path must never be rewritten
func (e *Excluder) Excluded(path string) bool {
	if e.exact[path] {
		return true
	}
	for _, p := range e.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	lower := strings.ToLower(path)
	for _, s := range e.suffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}
