package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomAlphabetString(t *testing.T) {
	s := RandomAlphabetString(12)
	assert.Equal(t, 12, len(s))
	for _, r := range s {
		assert.True(t, r >= 'a' && r <= 'z')
	}
}

func TestNewTruncatedUUID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewTruncatedUUID()
		require.Equal(t, TruncatedUUIDLength, len(id))
		require.False(t, seen[id], "truncated uuid repeated within a single run")
		seen[id] = true
	}
}

func TestContainsString(t *testing.T) {
	assert.True(t, ContainsString([]string{"a", "b"}, "b"))
	assert.False(t, ContainsString([]string{"a", "b"}, "c"))
	assert.False(t, ContainsString(nil, "a"))
}
