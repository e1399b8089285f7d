package crawler

import (
	"net/url"
	"sort"
	"strings"
	"sync"
)

// Deduplicator tracks seed URLs by canonical form. The first spelling seen
// for a canonical URL is the one that is kept.
type Deduplicator struct {
	mu   sync.RWMutex
	seen map[string]string // canonical -> first spelling
}

// NewDeduplicator creates a Deduplicator with the given estimated capacity.
func NewDeduplicator(estimatedCapacity int) *Deduplicator {
	return &Deduplicator{
		seen: make(map[string]string, estimatedCapacity),
	}
}

// Add records rawURL and reports whether it was new.
func (d *Deduplicator) Add(rawURL string) bool {
	canonical := CanonicalizeURL(rawURL)

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[canonical]; ok {
		return false
	}
	d.seen[canonical] = rawURL
	return true
}

// IsSeen returns true if the URL (after canonicalization) has been added.
func (d *Deduplicator) IsSeen(rawURL string) bool {
	canonical := CanonicalizeURL(rawURL)

	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.seen[canonical]
	return ok
}

// Unique adds every URL and returns the new ones in input order. Blank
// entries are dropped.
func (d *Deduplicator) Unique(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if d.Add(u) {
			out = append(out, u)
		}
	}
	return out
}

// Count returns the number of unique URLs seen.
func (d *Deduplicator) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.seen)
}

// CanonicalizeURL normalizes a URL for deduplication:
// - lowercases scheme and host
// - removes fragment
// - removes default ports (80 for http, 443 for https)
// - sorts query parameters
// - removes trailing slash (except root)
//
// Scheme-less URLs such as "bbc.com/news/x" are left scheme-less.
func CanonicalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		u.Host = u.Hostname()
	}

	if u.RawQuery != "" {
		params := u.Query()
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var sorted []string
		for _, k := range keys {
			vals := params[k]
			sort.Strings(vals)
			for _, v := range vals {
				sorted = append(sorted, url.QueryEscape(k)+"="+url.QueryEscape(v))
			}
		}
		u.RawQuery = strings.Join(sorted, "&")
	}

	if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}
	if u.Path == "" && u.Host != "" {
		u.Path = "/"
	}

	return u.String()
}
