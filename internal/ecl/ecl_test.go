package ecl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("single reference with operator and term", func(t *testing.T) {
		constraint, err := Parse("<< 404684003 |Clinical finding|")
		require.NoError(t, err)

		sub, ok := constraint.(*SubExpression)
		require.True(t, ok)
		assert.Equal(t, OperatorDescendantOrSelfOf, sub.Operator)
		assert.Equal(t, "404684003", sub.ConceptID)
		assert.Equal(t, "Clinical finding", sub.Term)
	})

	t.Run("disjunction", func(t *testing.T) {
		constraint, err := Parse("<< 49755003 |B| OR << 128927009 |A|")
		require.NoError(t, err)

		compound, ok := constraint.(*Compound)
		require.True(t, ok)
		require.Len(t, compound.Disjunctions, 2)
		assert.Empty(t, compound.Conjunctions)
		assert.Equal(t, "49755003", compound.Disjunctions[0].ConceptID)
		assert.Equal(t, "128927009", compound.Disjunctions[1].ConceptID)
	})

	t.Run("comma is a conjunction and keywords are case insensitive", func(t *testing.T) {
		constraint, err := Parse("< 1 |x|, < 2 |y| and < 3")
		require.NoError(t, err)

		compound, ok := constraint.(*Compound)
		require.True(t, ok)
		assert.Len(t, compound.Conjunctions, 3)
	})

	t.Run("exclusion keeps the head as conjunction", func(t *testing.T) {
		constraint, err := Parse("<< 2 |b| MINUS << 1 |a|")
		require.NoError(t, err)

		compound, ok := constraint.(*Compound)
		require.True(t, ok)
		require.Len(t, compound.Conjunctions, 1)
		require.NotNil(t, compound.Exclusion)
		assert.Equal(t, "1", compound.Exclusion.ConceptID)
	})

	t.Run("nested expression, wildcard and comments", func(t *testing.T) {
		constraint, err := Parse("/* any */ << (< 2 OR < 1) AND *")
		require.NoError(t, err)

		compound, ok := constraint.(*Compound)
		require.True(t, ok)
		require.Len(t, compound.Conjunctions, 2)
		assert.NotNil(t, compound.Conjunctions[0].Nested)
		assert.True(t, compound.Conjunctions[1].Wildcard)
	})

	t.Run("mixed AND and OR without parentheses is rejected", func(t *testing.T) {
		_, err := Parse("< 1 AND < 2 OR < 3")
		assert.Error(t, err)
	})

	t.Run("dangling operator is rejected", func(t *testing.T) {
		_, err := Parse("<< 1 |a| OR")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrUnsupported))
	})

	t.Run("refinement is kept as written", func(t *testing.T) {
		constraint, err := Parse("<< 404684003 |Clinical finding|: 363698007 = *")
		require.NoError(t, err)

		refined, ok := constraint.(*Refined)
		require.True(t, ok)
		assert.Equal(t, "404684003", refined.Focus.ConceptID)
		assert.Equal(t, "363698007 = *", refined.Refinement)
	})

	t.Run("nested refinement with groups and cardinality", func(t *testing.T) {
		constraint, err := Parse("(<< 2 |b|: [0..1] { 363698007 = (<< 1 OR << 3) }) OR << 1 |a|")
		require.NoError(t, err)

		compound, ok := constraint.(*Compound)
		require.True(t, ok)
		require.Len(t, compound.Disjunctions, 2)
		refined, ok := compound.Disjunctions[0].Nested.(*Refined)
		require.True(t, ok)
		assert.Equal(t, "2", refined.Focus.ConceptID)
		assert.Equal(t, "[0..1] { 363698007 = (<< 1 OR << 3) }", refined.Refinement)
	})

	t.Run("refinement without attributes is rejected", func(t *testing.T) {
		_, err := Parse("<< 404684003:")
		assert.Error(t, err)
	})

	t.Run("valid syntax outside the supported subset is unsupported", func(t *testing.T) {
		for _, text := range []string{
			"<< 404684003 . 363698007",
			`<< 404684003 {{ term = "heart" }}`,
		} {
			_, err := Parse(text)
			require.Error(t, err, text)
			assert.True(t, errors.Is(err, ErrUnsupported), text)
		}
	})
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "disjunction sorted by concept id",
			input:    "<< 49755003 |B| OR << 128927009 |A|",
			expected: "<< 128927009 |A| OR << 49755003 |B|",
		},
		{
			name:     "already canonical is stable",
			input:    "<< 128927009 |A| OR << 49755003 |B|",
			expected: "<< 128927009 |A| OR << 49755003 |B|",
		},
		{
			name:     "conjunction sorted and joined with AND",
			input:    "< 3 |c| , < 1 |a| and < 2 |b|",
			expected: "< 1 |a| AND < 2 |b| AND < 3 |c|",
		},
		{
			name:     "exclusion appended after MINUS",
			input:    "<< 2 |b|   minus <<   1 |a|",
			expected: "<< 2 |b| MINUS << 1 |a|",
		},
		{
			name:     "single reference is returned untouched",
			input:    "<<  404684003 |Clinical finding|",
			expected: "<<  404684003 |Clinical finding|",
		},
		{
			name:     "nested members carry no id and sort first",
			input:    "< 5 |e| OR (< 9 |i| OR < 3 |c|) OR < 4 |d|",
			expected: "(< 3 |c| OR < 9 |i|) OR < 4 |d| OR < 5 |e|",
		},
		{
			name:     "terms are trimmed",
			input:    "< 2 | Two | OR < 1 |One |",
			expected: "< 1 |One| OR < 2 |Two|",
		},
		{
			name:     "refined expression is returned untouched",
			input:    "<< 404684003: 363698007 = *",
			expected: "<< 404684003: 363698007 = *",
		},
		{
			name:     "nested refinement sorts first and keeps its attributes",
			input:    "<< 5 |e| OR (<< 2 |b|:363698007 = *)",
			expected: "(<< 2 |b|: 363698007 = *) OR << 5 |e|",
		},
		{
			name:     "blank input",
			input:    "  ",
			expected: "  ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Canonicalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}

	t.Run("malformed input is returned unchanged with an error", func(t *testing.T) {
		input := "<< 123 |unterminated OR"
		result, err := Canonicalize(input)
		assert.Error(t, err)
		assert.Equal(t, input, result)
	})

	t.Run("canonical output is idempotent", func(t *testing.T) {
		once, err := Canonicalize("<< 3 |c| OR << 20 |t| OR << 100 |h|")
		require.NoError(t, err)
		twice, err := Canonicalize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
		assert.Equal(t, "<< 100 |h| OR << 20 |t| OR << 3 |c|", once)
	})
}

func TestCompareNullsFirst(t *testing.T) {
	assert.Equal(t, 0, CompareNullsFirst("", ""))
	assert.Equal(t, -1, CompareNullsFirst("", "1"))
	assert.Equal(t, 1, CompareNullsFirst("1", ""))
	assert.Negative(t, CompareNullsFirst("128927009", "49755003"))
}
