package ecl

import (
	"slices"
	"strings"
)

// Canonicalize returns the canonical text of a compound expression constraint: members of
// a conjunction or disjunction are ordered by concept id and the exclusion, if any, is
// appended after " MINUS ". Blank input, single expressions and refined expressions are
// returned unchanged; a refinement nested inside a compound keeps its text.
//
// When the text cannot be parsed the original text is returned together with the parse
// error; malformed constraints are tolerated, not corrected.
func Canonicalize(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	constraint, err := Parse(text)
	if err != nil {
		return text, err
	}
	compound, ok := constraint.(*Compound)
	if !ok {
		return text, nil
	}
	return renderCompound(compound), nil
}

// Render writes an expression constraint in canonical form.
func Render(constraint ExpressionConstraint) string {
	switch c := constraint.(type) {
	case *Compound:
		return renderCompound(c)
	case *SubExpression:
		return renderSubExpression(c)
	case *Refined:
		return renderSubExpression(c.Focus) + ": " + c.Refinement
	default:
		return ""
	}
}

func renderCompound(c *Compound) string {
	var b strings.Builder
	writeJoined(&b, sortedByConceptID(c.Conjunctions), " AND ")
	writeJoined(&b, sortedByConceptID(c.Disjunctions), " OR ")
	if c.Exclusion != nil {
		b.WriteString(" MINUS ")
		b.WriteString(renderSubExpression(c.Exclusion))
	}
	return b.String()
}

func writeJoined(b *strings.Builder, subs []*SubExpression, separator string) {
	for i, sub := range subs {
		if i > 0 {
			b.WriteString(separator)
		}
		b.WriteString(renderSubExpression(sub))
	}
}

func renderSubExpression(s *SubExpression) string {
	var b strings.Builder
	if s.Operator != OperatorNone {
		b.WriteString(string(s.Operator))
		b.WriteByte(' ')
	}
	switch {
	case s.Nested != nil:
		b.WriteByte('(')
		b.WriteString(Render(s.Nested))
		b.WriteByte(')')
	case s.Wildcard:
		b.WriteByte('*')
	default:
		b.WriteString(s.ConceptID)
		if s.Term != "" {
			b.WriteString(" |")
			b.WriteString(s.Term)
			b.WriteByte('|')
		}
	}
	return b.String()
}

// sortedByConceptID orders sub-expressions by concept id; wildcards and nested
// expressions carry no id and sort first, keeping their relative order.
func sortedByConceptID(subs []*SubExpression) []*SubExpression {
	if len(subs) == 0 {
		return nil
	}
	sorted := slices.Clone(subs)
	slices.SortStableFunc(sorted, func(a, b *SubExpression) int {
		return CompareNullsFirst(a.ConceptID, b.ConceptID)
	})
	return sorted
}

// CompareNullsFirst compares two identifiers lexicographically with the empty
// (absent) identifier ordered before any present one.
func CompareNullsFirst(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return -1
	case b == "":
		return 1
	default:
		return strings.Compare(a, b)
	}
}
