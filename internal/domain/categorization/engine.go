package categorization

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Engine matches every taxonomy keyword against a description in a single
// pass using the Aho-Corasick algorithm. Each keyword carries the rank of the
// earliest category that lists it, so the lowest rank among the hits is the
// category an ordered first-match scan would pick.
// Time complexity: O(n + m) where n = text length, m = total matches.
type Engine struct {
	matcher  *ahocorasick.Matcher
	patterns []string // Unique lower-cased keywords in matcher order
	ranks    []int    // Category rank for each pattern
}

// NewEngine builds the matcher from the ordered category list. Empty
// keywords are ignored.
func NewEngine(categories []Category) *Engine {
	patternToIndex := make(map[string]int)
	var patterns []string
	var ranks []int

	for rank, cat := range categories {
		for _, kw := range cat.Keywords {
			clean := strings.ToLower(strings.TrimSpace(kw))
			if clean == "" {
				continue
			}
			// Keep the earliest category for keywords listed more than once.
			if _, exists := patternToIndex[clean]; exists {
				continue
			}
			patternToIndex[clean] = len(patterns)
			patterns = append(patterns, clean)
			ranks = append(ranks, rank)
		}
	}

	e := &Engine{patterns: patterns, ranks: ranks}
	if len(patterns) > 0 {
		e.matcher = ahocorasick.NewStringMatcher(patterns)
	}
	return e
}

// Match returns the rank of the earliest category with a keyword contained in
// the already lower-cased description, or false when nothing matches.
func (e *Engine) Match(lowered string) (int, bool) {
	if e.matcher == nil {
		return 0, false
	}

	hits := e.matcher.MatchThreadSafe([]byte(lowered))
	if len(hits) == 0 {
		return 0, false
	}

	best := -1
	for _, idx := range hits {
		if idx < 0 || idx >= len(e.ranks) {
			continue
		}
		if best < 0 || e.ranks[idx] < best {
			best = e.ranks[idx]
		}
	}
	return best, best >= 0
}

// MatchedKeywords returns every keyword found in the lower-cased description.
func (e *Engine) MatchedKeywords(lowered string) []string {
	if e.matcher == nil {
		return nil
	}
	hits := e.matcher.MatchThreadSafe([]byte(lowered))
	out := make([]string, 0, len(hits))
	for _, idx := range hits {
		if idx >= 0 && idx < len(e.patterns) {
			out = append(out, e.patterns[idx])
		}
	}
	return out
}

// PatternCount returns the number of keywords loaded in the engine.
func (e *Engine) PatternCount() int {
	return len(e.patterns)
}

// IsEmpty returns true if the engine has no keywords loaded.
func (e *Engine) IsEmpty() bool {
	return e.matcher == nil
}
