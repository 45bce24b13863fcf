// Package suggest finds the "did you mean" candidate for an unknown name.
package suggest

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Closest returns the candidate most likely meant by target, or "".
// Candidates containing target as a case-insensitive subsequence win; the
// rest are ranked by edit distance, which must stay within a third of the
// target's length.
func Closest(target string, candidates []string) string {
	if target == "" || len(candidates) == 0 {
		return ""
	}
	pool := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c != target {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		return ""
	}

	ranks := fuzzy.RankFindFold(target, pool)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	limit := len(target) / 3
	if limit < 1 {
		limit = 1
	}
	best, bestDist := "", limit+1
	for _, c := range pool {
		d := fuzzy.LevenshteinDistance(target, c)
		if d < bestDist || (d == bestDist && c < best) {
			best, bestDist = c, d
		}
	}
	if bestDist > limit {
		return ""
	}
	return best
}
