package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClaimRegistryOneToOne(t *testing.T) {
	claims := NewClaimRegistry()

	assert.True(t, claims.TryClaim("s1", "t1"))

	// The same target cannot be consumed twice.
	assert.False(t, claims.TryClaim("s2", "t1"))

	// The same source cannot be consumed twice.
	assert.False(t, claims.TryClaim("s1", "t2"))

	// A failed claim has no side effects.
	assert.False(t, claims.TargetClaimed("t2"))
	assert.False(t, claims.SourceClaimed("s2"))

	assert.True(t, claims.TryClaim("s2", "t2"))
	assert.Equal(t, 2, claims.ClaimedTargets())
}

func TestClaimSource(t *testing.T) {
	claims := NewClaimRegistry()

	assert.True(t, claims.ClaimSource("s1"))
	assert.False(t, claims.ClaimSource("s1"))

	// Classification-only claims leave targets untouched.
	assert.Equal(t, 0, claims.ClaimedTargets())
	assert.False(t, claims.TryClaim("s1", "t1"))
	assert.True(t, claims.TryClaim("s2", "t1"))
}
