package forge

import (
	"net/http"
	"strings"
	"time"
)

// newHTTPClient30s returns an HTTP client with a 30s timeout.
func newHTTPClient30s() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// nextLink extracts the rel="next" target of an RFC 8288 Link header.
func nextLink(h http.Header) string {
	for _, entry := range strings.Split(h.Get("Link"), ",") {
		if !strings.Contains(entry, `rel="next"`) {
			continue
		}
		left := strings.Index(entry, "<")
		right := strings.Index(entry, ">")
		if left < 0 || right <= left {
			return ""
		}
		return entry[left+1 : right]
	}
	return ""
}

// parseDate accepts the RFC 3339 timestamps GitHub and GitLab return. An
// empty or malformed value yields the zero time.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
