package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// Katakana block folded onto hiragana by a fixed code-point offset.
	katakanaFirst    = 0x30A1 // ァ
	katakanaLast     = 0x30F6 // ヶ
	kanaFoldOffset   = 0x60   // カ (U+30AB) -> か (U+304B)
	longVowelMark    = 0x30FC // ー
	halfwidthChoonpu = 0xFF70 // ｰ, folded to U+30FC by NFKC
)

// Normalize canonicalizes raw text for comparison. The original text
// is preserved for storage and display; only comparisons run on the
// normalized form.
//
// Steps, in order: NFKC compatibility folding (fullwidth/halfwidth and
// compatibility characters), stripping of punctuation/whitespace/symbol
// classes, katakana-to-hiragana folding, long-vowel-mark removal, and
// ASCII lowercasing. Unmapped runes pass through unchanged; arbitrary
// Unicode input never panics.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	folded := norm.NFKC.String(s)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		if r >= katakanaFirst && r <= katakanaLast {
			r -= kanaFoldOffset
		}
		// ー is a modifier letter, not a symbol, so it survives the
		// class filter above and needs explicit removal.
		if r == longVowelMark || r == halfwidthChoonpu {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
