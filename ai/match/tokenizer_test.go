package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizerParticleFiltering(t *testing.T) {
	tok := NewTokenizer(nil) // default particle inventory

	// は and に are particles: neither appears as a character token,
	// and every bigram touching them is dropped.
	tokens := tok.Tokens("こんにちは")

	assert.Equal(t, toSet("こ", "ん", "ち", "こん"), tokens)
}

func TestTokenizerShortInputs(t *testing.T) {
	tok := NewTokenizer(nil)

	assert.Empty(t, tok.Tokens(""))
	assert.Equal(t, toSet("あ"), tok.Tokens("あ"))
}

func TestTokenizerCustomStopSet(t *testing.T) {
	t.Run("empty stop-set disables filtering", func(t *testing.T) {
		tok := NewTokenizer([]string{})
		assert.Equal(t, toSet("あ", "い", "う", "あい", "いう"), tok.Tokens("あいう"))
	})

	t.Run("injected stop-set is honored", func(t *testing.T) {
		tok := NewTokenizer([]string{"い"})
		assert.Equal(t, toSet("あ", "う"), tok.Tokens("あいう"))
	})
}

func TestTokenizerDeduplicates(t *testing.T) {
	tok := NewTokenizer([]string{})

	tokens := tok.Tokens("ああああ")

	assert.Equal(t, toSet("あ", "ああ"), tokens)
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name     string
		a, b     map[string]struct{}
		expected float64
	}{
		{"both empty", toSet(), toSet(), 1},
		{"one empty", toSet("あ"), toSet(), 0},
		{"identical", toSet("あ", "い"), toSet("あ", "い"), 1},
		{"disjoint", toSet("あ"), toSet("い"), 0},
		{"partial overlap", toSet("あ", "い", "う"), toSet("い", "う", "え"), 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, jaccard(tt.a, tt.b), 1e-9)
		})
	}
}

func toSet(tokens ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}
