package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDice(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{"exact equal", "abc", "abc", 1.0},
		{"empty left", "", "abc", 0.0},
		{"empty right", "abc", "", 0.0},
		{"both empty", "", "", 0.0},
		{"two char exact", "ab", "ab", 1.0},
		{"two char different", "ab", "cd", 0.0},
		{"single char unequal", "a", "b", 0.0},
		{"single char vs word", "a", "abc", 0.0},
		{"no overlap", "abc", "xyz", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Dice(tt.a, tt.b), 0.0001)
		})
	}
}

func TestDicePartialOverlap(t *testing.T) {
	// "night" and "nacht": bigrams ni,ig,gh,ht vs na,ac,ch,ht share ht.
	assert.InDelta(t, 0.25, Dice("night", "nacht"), 0.0001)

	// Repeated bigrams are a multiset: each match consumed at most once.
	score := Dice("aaaa", "aa")
	assert.InDelta(t, 2.0*1.0/(3+1), score, 0.0001)
}

func TestDiceSymmetry(t *testing.T) {
	pairs := [][2]string{
		{"jane smith", "jane smyth"},
		{"acme corp", "acme corporation"},
		{"night", "nacht"},
	}
	for _, p := range pairs {
		assert.InDelta(t, Dice(p[0], p[1]), Dice(p[1], p[0]), 0.0001)
	}
}

func TestEditRatio(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{"exact equal", "abc", "abc", 1.0},
		{"empty left", "", "abc", 0.0},
		{"both empty", "", "", 0.0},
		{"classic kitten", "kitten", "sitting", 1.0 - 3.0/7.0},
		{"one substitution", "jane", "jans", 0.75},
		{"disjoint", "abc", "xyz", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, EditRatio(tt.a, tt.b), 0.0001)
		})
	}
}

func TestNameScore(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{"exact", "jane smith", "jane smith", 1.0},
		{"empty", "", "jane smith", 0.0},
		{"long substring", "jane smith", "jane smith consulting", 0.92},
		{"words contained", "maria garcia", "maria del carmen garcia lopez", 0.88},
		{"spacing only", "raw steel", "rawsteel", 0.85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, NameScore(tt.a, tt.b), 0.0001)
		})
	}
}

func TestNameScoreFallsBackToEditRatio(t *testing.T) {
	a, b := "jane smith", "john smith"
	assert.InDelta(t, EditRatio(a, b), NameScore(a, b), 0.0001)
}
