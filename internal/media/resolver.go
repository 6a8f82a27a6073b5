package media

import "strings"

// Resolver turns stored media keys into client-facing CDN URLs.
// Storage itself (uploads, buckets) lives outside this service; feeds
// only ever read keys and hand out URLs.
type Resolver struct {
	cdnBaseURL string
}

// NewResolver creates a resolver rooted at the given CDN base URL
func NewResolver(cdnBaseURL string) *Resolver {
	return &Resolver{cdnBaseURL: strings.TrimRight(cdnBaseURL, "/")}
}

// URL resolves a stored media key to an absolute URL. Keys that are
// already absolute (legacy rows ingested before the CDN move) pass
// through untouched.
func (r *Resolver) URL(key string) string {
	if key == "" {
		return ""
	}
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}
	return r.cdnBaseURL + "/" + strings.TrimLeft(key, "/")
}
