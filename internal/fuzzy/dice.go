// Package fuzzy scores approximate string matches so that human-entered
// names can be resolved to the values actually stored in the database.
package fuzzy

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Acceptance thresholds. Relation lookups across tables are more permissive
// than the correction of a value typed against a known column.
const (
	RelationThreshold   = 0.5
	CorrectionThreshold = 0.8
)

// Mode selects how both sides are normalized before scoring.
type Mode uint8

const (
	FoldCase Mode = 1 << iota
	FoldDiacritics
)

// combining diacritical marks block, U+0300..U+036F
var combiningMarks = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0300, Hi: 0x036f, Stride: 1}},
}

// Normalize applies the folding selected by mode.
func Normalize(s string, mode Mode) string {
	if mode&FoldDiacritics != 0 {
		// transform.Transformer values carry state, build one per call
		t := transform.Chain(norm.NFD, runes.Remove(runes.In(combiningMarks)))
		if out, _, err := transform.String(t, s); err == nil {
			s = out
		}
	}
	if mode&FoldCase != 0 {
		s = strings.ToLower(s)
	}
	return s
}

// Similarity returns the Dice coefficient of the character bigrams of a and
// b, ignoring whitespace. Identical strings score 1; strings shorter than two
// characters score 0 unless identical.
func Similarity(a, b string) float64 {
	a = stripSpace(a)
	b = stripSpace(b)
	if a == b {
		return 1
	}

	ar, br := []rune(a), []rune(b)
	if len(ar) < 2 || len(br) < 2 {
		return 0
	}

	bigrams := make(map[string]int, len(ar)-1)
	for i := 0; i < len(ar)-1; i++ {
		bigrams[string(ar[i:i+2])]++
	}

	shared := 0
	for i := 0; i < len(br)-1; i++ {
		bg := string(br[i : i+2])
		if n := bigrams[bg]; n > 0 {
			bigrams[bg] = n - 1
			shared++
		}
	}

	return 2 * float64(shared) / float64(len(ar)+len(br)-2)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
