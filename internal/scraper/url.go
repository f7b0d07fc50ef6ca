package scraper

import "strings"

// NormalizeURL canonicalizes a raw input string into a fetchable URL.
// Whitespace is trimmed, an empty string stays empty, and inputs without an
// http or https scheme get "http://" prepended. The function is idempotent.
func NormalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "http://" + u
	}
	return u
}
