// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"strings"

	"github.com/Akshath47/deep-research/pkg/types"
)

// RawContext describes the search that produced a result, for the footer
// of its raw file.
type RawContext struct {
	Subquery string
	Terms    []string
	Depth    types.SearchDepth
}

// FormatRawResult renders the r-th (0-based) result as the plain-text
// document stored under raw_data/.
func FormatRawResult(r int, res types.SearchResult, rc RawContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Raw Search Result %d\n\n", r+1)
	writeResultFields(&b, res, true)
	b.WriteString("---\n")
	fmt.Fprintf(&b, "Search Terms: %s\n", strings.Join(rc.Terms, ", "))
	fmt.Fprintf(&b, "Subquery: %s\n", rc.Subquery)
	depth := rc.Depth
	if depth == "" {
		depth = types.DepthBasic
	}
	fmt.Fprintf(&b, "Strategy: %s\n", depth)
	return b.String()
}

// FormatListing renders every result of one task as a single document.
func FormatListing(results []types.SearchResult, subquery string, terms []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Raw Search Results\n\n## Subquery\n%s\n\n## Search Terms\n%s\n\n", subquery, strings.Join(terms, ", "))
	if len(results) == 0 {
		b.WriteString("No results found.\n")
		return b.String()
	}
	for i, res := range results {
		fmt.Fprintf(&b, "### Result %d: %s\n", i+1, res.Title)
		writeResultFields(&b, res, false)
		b.WriteString("---\n")
	}
	return b.String()
}

func writeResultFields(b *strings.Builder, res types.SearchResult, withTitle bool) {
	fmt.Fprintf(b, "URL: %s\n", res.URL)
	if withTitle {
		fmt.Fprintf(b, "Title: %s\n", res.Title)
	}
	published := res.PublishedDate
	if published == "" {
		published = "Unknown"
	}
	fmt.Fprintf(b, "Type: %s\n", res.SourceType)
	fmt.Fprintf(b, "Published: %s\n", published)
	fmt.Fprintf(b, "Score: %g\n\n", res.Score)
	fmt.Fprintf(b, "Content:\n%s\n\n", res.Content)
	fmt.Fprintf(b, "Snippet:\n%s\n\n", res.Snippet)
}

// ParseRawURL returns the URL line of a raw result document.
func ParseRawURL(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		if v, ok := strings.CutPrefix(line, "URL: "); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// ParseRawTitle returns the Title line of a raw result document.
func ParseRawTitle(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		if v, ok := strings.CutPrefix(line, "Title: "); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
