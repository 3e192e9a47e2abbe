// Package ecl parses the subset of the SNOMED CT Expression Constraint Language used by
// MRCM range constraints and renders compound constraints in a canonical order.
package ecl

// Operator is a unary constraint operator applied to a focus concept.
type Operator string

const (
	OperatorNone               Operator = ""
	OperatorDescendantOf       Operator = "<"
	OperatorDescendantOrSelfOf Operator = "<<"
	OperatorChildOf            Operator = "<!"
	OperatorChildOrSelfOf      Operator = "<<!"
	OperatorAncestorOf         Operator = ">"
	OperatorAncestorOrSelfOf   Operator = ">>"
	OperatorParentOf           Operator = ">!"
	OperatorParentOrSelfOf     Operator = ">>!"
	OperatorMemberOf           Operator = "^"
)

// ExpressionConstraint is implemented by *SubExpression, *Refined and *Compound.
type ExpressionConstraint interface {
	isExpressionConstraint()
}

// SubExpression is a single focus (concept reference, wildcard or parenthesised
// expression) with an optional operator.
type SubExpression struct {
	Operator  Operator
	ConceptID string
	Term      string
	Wildcard  bool
	Nested    ExpressionConstraint
}

// Compound combines sub-expressions. Exactly one of Conjunctions or Disjunctions is
// populated for AND / OR expressions; for `A MINUS B`, Conjunctions holds A and
// Exclusion holds B.
type Compound struct {
	Conjunctions []*SubExpression
	Disjunctions []*SubExpression
	Exclusion    *SubExpression
}

// Refined is a sub-expression narrowed by an attribute refinement, as in
// `<< 404684003: 363698007 = *`. The refinement text is kept as written.
type Refined struct {
	Focus      *SubExpression
	Refinement string
}

func (*SubExpression) isExpressionConstraint() {}
func (*Refined) isExpressionConstraint()       {}
func (*Compound) isExpressionConstraint()      {}
