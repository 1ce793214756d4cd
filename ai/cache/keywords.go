package cache

import (
	"github.com/hrygo/kaiwa/ai/match"
)

// KeywordExtractor derives index keywords from a learned exemplar.
// The default is a crude character-class heuristic, so it stays a
// replaceable strategy rather than a fixed algorithm.
type KeywordExtractor interface {
	Extract(input string) []string
}

// ParticleStopExtractor groups consecutive content runes of the
// normalized input into keyword chunks, breaking on grammatical
// particles and a small set of auxiliary endings.
type ParticleStopExtractor struct {
	stop        map[rune]struct{}
	maxKeywords int
}

// auxiliaryRunes are copula/auxiliary characters that carry no lexical
// content and would otherwise glue every keyword chunk together.
var auxiliaryRunes = []rune{'で', 'す', 'ま', 'た', 'だ'}

// NewParticleStopExtractor builds the default extractor from a
// particle stop-set. A nil particle list falls back to the matcher's
// default particles; maxKeywords <= 0 defaults to 5.
func NewParticleStopExtractor(particles []string, maxKeywords int) *ParticleStopExtractor {
	if maxKeywords <= 0 {
		maxKeywords = 5
	}
	if particles == nil {
		particles = match.DefaultConfig().Particles
	}
	stop := make(map[rune]struct{}, len(particles)+len(auxiliaryRunes))
	for _, p := range particles {
		for _, r := range p {
			stop[r] = struct{}{}
		}
	}
	for _, r := range auxiliaryRunes {
		stop[r] = struct{}{}
	}
	return &ParticleStopExtractor{stop: stop, maxKeywords: maxKeywords}
}

// Extract returns up to maxKeywords deduplicated chunks of at least
// two runes each.
func (e *ParticleStopExtractor) Extract(input string) []string {
	normalized := match.Normalize(input)

	var keywords []string
	seen := make(map[string]struct{})
	var chunk []rune

	flush := func() {
		if len(chunk) < 2 {
			chunk = chunk[:0]
			return
		}
		word := string(chunk)
		chunk = chunk[:0]
		if _, dup := seen[word]; dup {
			return
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}

	for _, r := range normalized {
		if _, isStop := e.stop[r]; isStop {
			flush()
			continue
		}
		chunk = append(chunk, r)
	}
	flush()

	if len(keywords) > e.maxKeywords {
		keywords = keywords[:e.maxKeywords]
	}
	return keywords
}
