package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowConsumesTokens(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("k", 3, 0), "burst capacity admits the first calls")
	}
	assert.False(t, l.Allow("k", 3, 0), "bucket empty with no refill")
}

func TestAllowKeysAreIndependent(t *testing.T) {
	l := New()
	assert.True(t, l.Allow("a", 1, 0))
	assert.False(t, l.Allow("a", 1, 0))
	assert.True(t, l.Allow("b", 1, 0))
}

func TestAllowZeroCapacity(t *testing.T) {
	l := New()
	assert.False(t, l.Allow("k", 0, 0))
}
