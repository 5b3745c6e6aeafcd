// Package evidence provides EvidenceSource implementations and the
// middleware that wraps them: rate limiting and retry.
package evidence

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// defaultMatchThreshold is the minimum similarity for a fuzzy handle
// match. External stat systems key records by in-game handle, which
// drifts from the platform display name (tags, decorations, case), so
// exact lookups miss legitimate records without this.
const defaultMatchThreshold = 0.85

// foldCaser is a package-level Unicode case folder, shared because
// caser construction is comparatively expensive.
var foldCaser = cases.Fold()

// HandleMatcher reconciles platform display names with external
// handles using normalized Levenshtein similarity.
type HandleMatcher struct {
	threshold float64
}

// NewHandleMatcher creates a matcher with the given similarity
// threshold; values outside (0, 1] fall back to the default.
func NewHandleMatcher(threshold float64) *HandleMatcher {
	if threshold <= 0 || threshold > 1 {
		threshold = defaultMatchThreshold
	}
	return &HandleMatcher{threshold: threshold}
}

// normalizeHandle case-folds a handle and strips surrounding space and
// the common "#tag" suffix, so cosmetic differences don't defeat
// matching.
func normalizeHandle(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	return foldCaser.String(s)
}

// Similarity returns the normalized Levenshtein similarity of two
// handles in [0, 1], 1 meaning identical after normalization.
func (m *HandleMatcher) Similarity(a, b string) float64 {
	a, b = normalizeHandle(a), normalizeHandle(b)
	if a == b {
		return 1.0
	}

	// Levenshtein operates on runes, so the normalizing length must be
	// the rune count, not the byte count.
	distance := levenshtein.ComputeDistance(a, b)
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}

	similarity := 1.0 - float64(distance)/float64(maxLen)
	if similarity < 0 {
		similarity = 0
	}
	return similarity
}

// BestMatch returns the candidate most similar to target, provided it
// clears the threshold. The boolean reports whether any candidate
// qualified. Equal similarities keep the earliest candidate for
// deterministic matching.
func (m *HandleMatcher) BestMatch(target string, candidates []string) (string, float64, bool) {
	var (
		best      string
		bestScore float64
		found     bool
	)
	for _, c := range candidates {
		if score := m.Similarity(target, c); score >= m.threshold && score > bestScore {
			best, bestScore, found = c, score, true
		}
	}
	return best, bestScore, found
}
