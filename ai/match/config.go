// Package match implements approximate matching of user utterances
// against previously seen input patterns. It combines an edit-distance
// metric, token-set overlap and substring/keyword heuristics into a
// single similarity score, with a cheap pre-filter in front of the
// expensive scoring stage.
package match

// Weights controls how the individual similarity signals are mixed.
// The defaults are tuned for short Japanese utterances; they are a
// design choice, not a derived constant, so keep them configurable.
type Weights struct {
	// Edit is the weight of the Levenshtein similarity component.
	Edit float64
	// Token is the weight of the token-set Jaccard component.
	Token float64
	// SubstringBonus is the flat bonus when one normalized string
	// contains the other.
	SubstringBonus float64
	// KeywordBoost scales the matched/total keyword ratio.
	KeywordBoost float64
}

// Config configures the matching components. Stop-words and weights
// are injected here instead of living in package globals so tests can
// substitute their own.
type Config struct {
	// Particles is the tokenizer stop-set of grammatical function
	// words excluded from character/bigram tokens.
	Particles []string

	Weights Weights

	// MaxLengthDiff is the length-gap guard for the Levenshtein
	// component: when the normalized lengths differ by more than this
	// many runes the O(n*m) computation is skipped and the component
	// contributes 0.
	MaxLengthDiff int

	// PrefilterOverlap is the minimum token-set Jaccard overlap for a
	// candidate to survive stage-1 filtering (substring containment
	// also passes).
	PrefilterOverlap float64

	// CandidateLimit bounds the candidate fetch per Find call.
	CandidateLimit int
}

// defaultParticles is the standard Japanese particle inventory.
var defaultParticles = []string{
	"は", "が", "を", "に", "へ", "と", "で", "も", "の", "や", "か", "ね", "よ",
}

// DefaultConfig returns the default matching configuration.
func DefaultConfig() Config {
	return Config{
		Particles: defaultParticles,
		Weights: Weights{
			Edit:           0.4,
			Token:          0.4,
			SubstringBonus: 0.2,
			KeywordBoost:   0.2,
		},
		MaxLengthDiff:    8,
		PrefilterOverlap: 0.3,
		CandidateLimit:   50,
	}
}

// withDefaults fills zero values so a partially populated Config
// behaves sanely instead of silently matching nothing.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Particles == nil {
		c.Particles = def.Particles
	}
	if c.Weights == (Weights{}) {
		c.Weights = def.Weights
	}
	if c.MaxLengthDiff <= 0 {
		c.MaxLengthDiff = def.MaxLengthDiff
	}
	if c.PrefilterOverlap <= 0 {
		c.PrefilterOverlap = def.PrefilterOverlap
	}
	if c.CandidateLimit <= 0 {
		c.CandidateLimit = def.CandidateLimit
	}
	return c
}
