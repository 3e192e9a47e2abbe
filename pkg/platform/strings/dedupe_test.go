package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "trims whitespace",
			input:    []string{"  404684003  ", "116676008  "},
			expected: []string{"404684003", "116676008"},
		},
		{
			name:     "removes duplicates preserving order",
			input:    []string{"404684003", "116676008", "404684003", "363698007"},
			expected: []string{"404684003", "116676008", "363698007"},
		},
		{
			name:     "removes empty strings",
			input:    []string{"404684003", "", "  ", "116676008"},
			expected: []string{"404684003", "116676008"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DedupeAndTrim(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSortedSet(t *testing.T) {
	t.Run("sorts lexicographically after dedupe", func(t *testing.T) {
		result := SortedSet([]string{"49755003", "128927009", " 49755003 "})
		assert.Equal(t, []string{"128927009", "49755003"}, result)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, SortedSet(nil))
	})
}

func TestKeysOf(t *testing.T) {
	keys := KeysOf(map[string]int{"b": 1, "a": 2, "c": 3})
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}
