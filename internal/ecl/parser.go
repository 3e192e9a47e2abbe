package ecl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrUnsupported marks constraints written in ECL syntax this package does not model,
// such as dotted attributes or filters. They are valid, but cannot be canonicalized.
var ErrUnsupported = errors.New("unsupported expression constraint syntax")

var eclLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `/\*([^*]|\*+[^*/])*\*+/`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "Term", Pattern: `\|[^|]*\|`},
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Keyword", Pattern: `(?i:AND|OR|MINUS)\b`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
	{Name: "Comparison", Pattern: `!=|<=|>=`},
	{Name: "Operator", Pattern: `<<!|<<|<!|<|>>!|>>|>!|>|\^`},
	{Name: "ConceptID", Pattern: `\d+`},
	{Name: "Wildcard", Pattern: `\*`},
	{Name: "Symbol", Pattern: `\.\.|[:={}\[\].#@!~$&+-]`},
	{Name: "Punct", Pattern: `[(),]`},
})

// Tokens that only occur in ECL constructs outside the modelled subset.
var unsupportedTokenTypes = func() map[lexer.TokenType]bool {
	symbols := eclLexer.Symbols()
	return map[lexer.TokenType]bool{
		symbols["String"]:     true,
		symbols["Ident"]:      true,
		symbols["Comparison"]: true,
		symbols["Symbol"]:     true,
	}
}()

type expressionNode struct {
	Head       *subExpressionNode `parser:"@@"`
	Refinement *refinementNode    `parser:"( ':' @@"`
	Tail       *tailNode          `parser:"| @@ )?"`
}

type tailNode struct {
	Conjunctions []*subExpressionNode `parser:"  ( ( 'AND' | ',' ) @@ )+"`
	Disjunctions []*subExpressionNode `parser:"| ( 'OR' @@ )+"`
	Exclusion    *subExpressionNode   `parser:"| 'MINUS' @@"`
}

type subExpressionNode struct {
	Operator string     `parser:"@Operator?"`
	Focus    *focusNode `parser:"@@"`
}

type focusNode struct {
	Concept  *conceptNode    `parser:"  @@"`
	Wildcard bool            `parser:"| @Wildcard"`
	Nested   *expressionNode `parser:"| '(' @@ ')'"`
}

type conceptNode struct {
	ID   string `parser:"@ConceptID"`
	Term string `parser:"@Term?"`
}

// refinementNode takes every token up to the parenthesis that closes the enclosing
// expression. Only the parenthesis balance is checked; the text is kept as written.
type refinementNode struct {
	Tokens []lexer.Token
	Items  []*refinementItem `parser:"@@+"`
}

type refinementItem struct {
	Group []*refinementItem `parser:"  '(' @@* ')'"`
	Atom  string            `parser:"| @~( '(' | ')' )"`
}

var eclParser = participle.MustBuild[expressionNode](
	participle.Lexer(eclLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Map(func(token lexer.Token) (lexer.Token, error) {
		token.Value = strings.ToUpper(token.Value)
		return token, nil
	}, "Keyword"),
)

// Parse parses an expression constraint. Mixing AND and OR at one nesting level
// without parentheses is rejected, as is chaining MINUS. Syntax that is valid ECL but
// outside the supported subset fails with an error wrapping ErrUnsupported.
func Parse(text string) (ExpressionConstraint, error) {
	node, err := eclParser.ParseString("", text)
	if err != nil {
		if unsupportedAt(text, err) {
			return nil, fmt.Errorf("parse expression constraint: %w: %w", ErrUnsupported, err)
		}
		return nil, fmt.Errorf("parse expression constraint: %w", err)
	}
	return node.toConstraint(), nil
}

// unsupportedAt reports whether the parse failed on a token that belongs to ECL syntax
// this package does not model.
func unsupportedAt(text string, err error) bool {
	var perr participle.Error
	if !errors.As(err, &perr) {
		return false
	}
	lex, lexErr := eclLexer.LexString("", text)
	if lexErr != nil {
		return false
	}
	tokens, lexErr := lexer.ConsumeAll(lex)
	if lexErr != nil {
		return false
	}
	offset := perr.Position().Offset
	for _, token := range tokens {
		if token.Pos.Offset == offset && !token.EOF() {
			return unsupportedTokenTypes[token.Type]
		}
	}
	return false
}

func (n *expressionNode) toConstraint() ExpressionConstraint {
	head := n.Head.toSubExpression()
	if n.Refinement != nil {
		return &Refined{Focus: head, Refinement: n.Refinement.text()}
	}
	if n.Tail == nil {
		return head
	}
	compound := &Compound{}
	switch {
	case len(n.Tail.Conjunctions) > 0:
		compound.Conjunctions = append([]*SubExpression{head}, convertAll(n.Tail.Conjunctions)...)
	case len(n.Tail.Disjunctions) > 0:
		compound.Disjunctions = append([]*SubExpression{head}, convertAll(n.Tail.Disjunctions)...)
	case n.Tail.Exclusion != nil:
		compound.Conjunctions = []*SubExpression{head}
		compound.Exclusion = n.Tail.Exclusion.toSubExpression()
	}
	return compound
}

func (n *refinementNode) text() string {
	var b strings.Builder
	for _, token := range n.Tokens {
		b.WriteString(token.Value)
	}
	return strings.TrimSpace(b.String())
}

func convertAll(nodes []*subExpressionNode) []*SubExpression {
	out := make([]*SubExpression, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, node.toSubExpression())
	}
	return out
}

func (n *subExpressionNode) toSubExpression() *SubExpression {
	sub := &SubExpression{Operator: Operator(n.Operator)}
	switch {
	case n.Focus.Concept != nil:
		sub.ConceptID = n.Focus.Concept.ID
		sub.Term = strings.TrimSpace(strings.Trim(n.Focus.Concept.Term, "|"))
	case n.Focus.Wildcard:
		sub.Wildcard = true
	case n.Focus.Nested != nil:
		sub.Nested = n.Focus.Nested.toConstraint()
	}
	return sub
}
