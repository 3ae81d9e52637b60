// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"math"
	"net/url"
	"slices"
	"sort"
	"strings"

	"github.com/Akshath47/deep-research/pkg/types"
)

const snippetLength = 300

// NormalizeScores min-max scales raw scores into [0,1], rounded to three
// decimals. When every score is equal there is no spread to scale, so the
// raw values are kept, clamped into [0,1].
func NormalizeScores(raw []float64) []float64 {
	out := make([]float64, len(raw))
	if len(raw) == 0 {
		return out
	}
	lo, hi := raw[0], raw[0]
	for _, s := range raw[1:] {
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}
	for i, s := range raw {
		v := s
		if hi > lo {
			v = (s - lo) / (hi - lo)
		}
		out[i] = round3(math.Max(0, math.Min(1, v)))
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

var (
	newsMarkers     = []string{"news", "reuters", "cnn", "bbc", "apnews"}
	academicMarkers = []string{"pubmed", "arxiv", "scholar", "doi.org", "ncbi", "nature.com", "springer", "sciencedirect", "ieee", "acm.org"}
)

// ClassifySource infers the source type from a result URL.
func ClassifySource(rawURL string) types.SourceType {
	host := strings.ToLower(rawURL)
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = strings.ToLower(u.Host + u.Path)
	}
	for _, m := range academicMarkers {
		if strings.Contains(host, m) {
			return types.SourceAcademic
		}
	}
	for _, m := range newsMarkers {
		if strings.Contains(host, m) {
			return types.SourceNews
		}
	}
	return types.SourceWeb
}

// Deduplicate drops results whose URL was already seen, keeping the first
// occurrence. It returns the survivors and the number removed.
func Deduplicate(results []types.SearchResult) ([]types.SearchResult, int) {
	seen := make(map[string]bool, len(results))
	out := make([]types.SearchResult, 0, len(results))
	for _, r := range results {
		if seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		out = append(out, r)
	}
	return out, len(results) - len(out)
}

// FilterByScore keeps results scoring at least minScore.
func FilterByScore(results []types.SearchResult, minScore float64) []types.SearchResult {
	out := make([]types.SearchResult, 0, len(results))
	for _, r := range results {
		if r.Score >= minScore {
			out = append(out, r)
		}
	}
	return out
}

// Rerank multiplies the score of results whose source type is preferred by
// boost, capped at 1.0, then sorts by descending score. With no preferred
// types the input is returned unchanged.
func Rerank(results []types.SearchResult, preferred []types.SourceType, boost float64) []types.SearchResult {
	if len(preferred) == 0 {
		return results
	}
	out := slices.Clone(results)
	for i := range out {
		if slices.Contains(preferred, out[i].SourceType) {
			out[i].Score = math.Min(1.0, out[i].Score*boost)
		}
	}
	SortByScore(out)
	return out
}

// SortByScore sorts by descending score, keeping the input order of ties.
func SortByScore(results []types.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

// Truncate returns at most n results. Non-positive n keeps all.
func Truncate(results []types.SearchResult, n int) []types.SearchResult {
	if n > 0 && len(results) > n {
		return results[:n]
	}
	return results
}

func truncateText(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
