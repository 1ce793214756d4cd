package match

import "strings"

// Scorer combines edit-distance similarity, token-set overlap, a
// substring bonus and an optional keyword boost into one score in
// [0,1].
type Scorer struct {
	cfg       Config
	tokenizer *Tokenizer
}

// NewScorer creates a similarity scorer. Zero config fields fall back
// to defaults.
func NewScorer(cfg Config) *Scorer {
	cfg = cfg.withDefaults()
	return &Scorer{
		cfg:       cfg,
		tokenizer: NewTokenizer(cfg.Particles),
	}
}

// Score rates how closely input matches pattern. Keywords, when
// supplied, are checked by substring containment against the
// normalized input and add up to cfg.Weights.KeywordBoost.
func (s *Scorer) Score(input, pattern string, keywords []string) float64 {
	a := Normalize(input)
	b := Normalize(pattern)

	// Exact-match short-circuit: whitespace/punctuation differences
	// vanish under normalization.
	if a == b {
		return 1.0
	}

	edit := s.editSimilarity(a, b)
	token := jaccard(s.tokenizer.Tokens(a), s.tokenizer.Tokens(b))

	score := s.cfg.Weights.Edit*edit + s.cfg.Weights.Token*token
	// The empty string is trivially a substring of everything; it
	// earns no bonus.
	if a != "" && b != "" && (strings.Contains(a, b) || strings.Contains(b, a)) {
		score += s.cfg.Weights.SubstringBonus
	}
	if score > 1 {
		score = 1
	}

	if len(keywords) > 0 {
		matched := 0
		for _, keyword := range keywords {
			if kw := Normalize(keyword); kw != "" && strings.Contains(a, kw) {
				matched++
			}
		}
		score += s.cfg.Weights.KeywordBoost * float64(matched) / float64(len(keywords))
		if score > 1 {
			score = 1
		}
	}

	return score
}

// editSimilarity converts rune-level Levenshtein distance into a
// similarity via 1 - distance/max(len). When the rune lengths differ
// by more than MaxLengthDiff the strings are assumed unrelated and the
// O(n*m) computation is skipped entirely, bounding worst-case cost on
// pathological inputs.
func (s *Scorer) editSimilarity(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)

	diff := len(ra) - len(rb)
	if diff < 0 {
		diff = -diff
	}
	if diff > s.cfg.MaxLengthDiff {
		return 0
	}

	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1
	}

	distance := levenshtein(ra, rb)
	return 1 - float64(distance)/float64(maxLen)
}

// levenshtein is the classic dynamic-programming edit distance,
// two-row variant.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			deletion := prev[j] + 1
			insertion := curr[j-1] + 1
			substitution := prev[j-1] + cost

			min := deletion
			if insertion < min {
				min = insertion
			}
			if substitution < min {
				min = substitution
			}
			curr[j] = min
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
