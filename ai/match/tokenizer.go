package match

import "strings"

// Tokenizer derives a bag-of-tokens representation from normalized
// text: every rune plus every overlapping two-rune bigram, with
// grammatical particles filtered out to reduce noise. This works
// without word boundaries, which Japanese does not mark.
type Tokenizer struct {
	particleSet  map[string]struct{}
	particleList []string
}

// NewTokenizer creates a tokenizer with the given particle stop-set.
// A nil stop-set falls back to the default particle inventory.
func NewTokenizer(particles []string) *Tokenizer {
	if particles == nil {
		particles = defaultParticles
	}
	set := make(map[string]struct{}, len(particles))
	list := make([]string, 0, len(particles))
	for _, p := range particles {
		if p == "" {
			continue
		}
		set[p] = struct{}{}
		list = append(list, p)
	}
	return &Tokenizer{particleSet: set, particleList: list}
}

// Tokens returns the deduplicated token set for s. The input is
// assumed to be normalized already. Inputs shorter than two runes
// yield the rune set only.
func (t *Tokenizer) Tokens(s string) map[string]struct{} {
	runes := []rune(s)
	tokens := make(map[string]struct{}, len(runes)*2)

	for _, r := range runes {
		ch := string(r)
		if _, isParticle := t.particleSet[ch]; isParticle {
			continue
		}
		tokens[ch] = struct{}{}
	}

	for i := 0; i+1 < len(runes); i++ {
		bigram := string(runes[i : i+2])
		if t.containsParticle(bigram) {
			continue
		}
		tokens[bigram] = struct{}{}
	}

	return tokens
}

// containsParticle reports whether any particle appears as a substring.
func (t *Tokenizer) containsParticle(s string) bool {
	for _, p := range t.particleList {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// jaccard computes |A∩B| / |A∪B| over two token sets.
// Both empty yields 1, exactly one empty yields 0.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	intersection := 0
	for token := range small {
		if _, ok := large[token]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
