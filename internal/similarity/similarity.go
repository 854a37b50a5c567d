// Package similarity provides the comparable-string similarity functions used
// by matching strategies to score candidate pairs. All scores are in [0, 1].
package similarity

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Dice computes the bigram overlap coefficient (Sørensen-Dice) between two
// strings. Bigrams are multisets; each matched bigram is consumed at most
// once. Strings shorter than two characters score 0 unless exactly equal.
func Dice(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}
	if len(a) < 2 || len(b) < 2 {
		return 0
	}

	bigrams := make(map[string]int)
	for i := 0; i < len(a)-1; i++ {
		bigrams[a[i:i+2]]++
	}

	matches := 0
	for i := 0; i < len(b)-1; i++ {
		bg := b[i : i+2]
		if bigrams[bg] > 0 {
			bigrams[bg]--
			matches++
		}
	}

	return 2.0 * float64(matches) / float64(len(a)-1+len(b)-1)
}

// EditRatio converts the Levenshtein distance between two strings into a
// similarity ratio against the longer string's length.
func EditRatio(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}
	if longer == 0 {
		return 0
	}
	distance := levenshtein.DistanceForStrings(ra, rb, levenshtein.DefaultOptionsWithSub)
	return 1.0 - float64(distance)/float64(longer)
}

// NameScore scores whether two normalized names refer to the same entity.
// Real-world name variants differ by abbreviation, suffix additions, or
// spacing, so a single metric underperforms; the ordered special cases below
// catch each family of variants before falling back to edit distance.
//
// Used for entity-identity decisions only, never for transaction matching.
func NameScore(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	// One name embedded in the other, covering at least 40% of its length.
	if strings.Contains(longer, shorter) && float64(len(shorter)) >= 0.4*float64(len(longer)) {
		return 0.92
	}

	// Every significant word of the shorter name appears inside a word of
	// the longer one (abbreviations, dropped suffixes).
	if wordsContained(shorter, longer) {
		return 0.88
	}

	// Spacing differences only.
	ca, cb := strings.ReplaceAll(a, " ", ""), strings.ReplaceAll(b, " ", "")
	if ca == cb || strings.Contains(ca, cb) || strings.Contains(cb, ca) {
		return 0.85
	}

	return EditRatio(a, b)
}

// wordsContained reports whether every word of a longer than two characters
// appears as a substring of some word in b.
func wordsContained(a, b string) bool {
	aWords := strings.Fields(a)
	bWords := strings.Fields(b)
	significant := 0
	for _, w := range aWords {
		if len(w) <= 2 {
			continue
		}
		significant++
		found := false
		for _, bw := range bWords {
			if strings.Contains(bw, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return significant > 0
}
