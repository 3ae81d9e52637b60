// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stages

import (
	"regexp"
	"sort"
	"strings"
)

// citationPattern matches inline citations such as [Source: URL] and
// multi-citations [Source: URL1; URL2].
var citationPattern = regexp.MustCompile(`\[Source:\s*([^\[\]]+)\]`)

// ExtractCitations returns every URL cited inline in text, in order of
// appearance, without repeats.
func ExtractCitations(text string) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, m := range citationPattern.FindAllStringSubmatch(text, -1) {
		for _, part := range strings.Split(m[1], ";") {
			u := strings.TrimSpace(part)
			u = strings.TrimPrefix(u, "Source:")
			u = strings.TrimSpace(u)
			if !isCitationURL(u) || seen[u] {
				continue
			}
			seen[u] = true
			urls = append(urls, u)
		}
	}
	return urls
}

// UnknownCitations returns the cited URLs in text that are not in known,
// sorted.
func UnknownCitations(text string, known map[string]bool) []string {
	var missing []string
	for _, u := range ExtractCitations(text) {
		if !known[normalizeURL(u)] {
			missing = append(missing, u)
		}
	}
	sort.Strings(missing)
	return missing
}

// isCitationURL rejects empty or placeholder citation content.
func isCitationURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// normalizeURL makes trivially different spellings of one URL compare
// equal.
func normalizeURL(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/.,)")
}
