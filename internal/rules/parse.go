// internal/rules/parse.go
package rules

import (
	"fmt"
	"strings"
)

/*
 * Rule expression parser.
 *
 * Builds an explicit expression tree from the token stream by recursive
 * descent. Precedence, tightest first:
 *   1. '!' (prefix NOT) over one word, a quoted phrase or a group
 *   2. implicit grouping: adjacent words form one phrase Term, adjacent
 *      operands form an implicit And
 *   3. '&' and '|', equal precedence, left to right
 *
 * Repair policy: malformed input is never rejected.
 *   - '(' still open at end of input is force-closed (Repairs++)
 *   - ')' with no matching '(' is dropped (Repairs++)
 *   - operators missing an operand are ignored
 *   - empty groups '()' contribute nothing
 */

// Node is an expression tree node.
type Node interface {
	fmt.Stringer
	node()
}

// Term is a leaf phrase: one or more words that must appear in order.
type Term struct {
	Text string
}

// And requires both operands.
type And struct {
	Left, Right Node
}

// Or requires either operand.
type Or struct {
	Left, Right Node
}

// Not requires its operand to be absent.
type Not struct {
	Expr Node
}

// Group is a parenthesized sub-expression.
type Group struct {
	Expr Node
}

func (Term) node()  {}
func (And) node()   {}
func (Or) node()    {}
func (Not) node()   {}
func (Group) node() {}

func (t Term) String() string  { return fmt.Sprintf("%q", t.Text) }
func (a And) String() string   { return fmt.Sprintf("And(%s, %s)", a.Left, a.Right) }
func (o Or) String() string    { return fmt.Sprintf("Or(%s, %s)", o.Left, o.Right) }
func (n Not) String() string   { return fmt.Sprintf("Not(%s)", n.Expr) }
func (g Group) String() string { return fmt.Sprintf("Group(%s)", g.Expr) }

// ParseResult holds the expression tree and the number of repairs applied.
type ParseResult struct {
	Root    Node // nil when the rule has no operands
	Repairs int
}

// Parse builds the expression tree for rule text.
func Parse(src string) ParseResult {
	p := &parser{toks: tokenize(src)}
	root := p.parseExpr()
	return ParseResult{Root: root, Repairs: p.repairs}
}

type parser struct {
	toks    []token
	pos     int
	depth   int
	repairs int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

// parseExpr parses operand sequences joined by '&' / '|'.
// Returns at end of input or at a ')' closing the current group.
func (p *parser) parseExpr() Node {
	left := p.parseSeq()
	for {
		t, ok := p.peek()
		if !ok {
			return left
		}
		switch t.kind {
		case tokAnd, tokOr:
			p.pos++
			left = combine(t.kind, left, p.parseSeq())
		case tokRParen:
			if p.depth > 0 {
				return left
			}
			// stray close at top level
			p.pos++
			p.repairs++
			left = combine(tokAnd, left, p.parseSeq())
		default:
			return left
		}
	}
}

// parseSeq parses adjacent operands into an implicit And chain.
func (p *parser) parseSeq() Node {
	var seq Node
	for {
		t, ok := p.peek()
		if !ok || !startsOperand(t.kind) {
			return seq
		}
		seq = combine(tokAnd, seq, p.parseUnary())
	}
}

func (p *parser) parseUnary() Node {
	t, _ := p.peek()
	if t.kind != tokNot {
		return p.parsePrimary()
	}
	p.pos++
	next, ok := p.peek()
	if !ok || !startsOperand(next.kind) {
		return nil
	}
	// NOT takes a single word; later words join the sequence.
	if next.kind == tokWord {
		p.pos++
		return Not{Expr: Term{Text: next.raw}}
	}
	operand := p.parseUnary()
	if operand == nil {
		return nil
	}
	return Not{Expr: operand}
}

func (p *parser) parsePrimary() Node {
	t, _ := p.peek()
	if t.kind == tokLParen {
		p.pos++
		p.depth++
		inner := p.parseExpr()
		if closing, ok := p.peek(); ok && closing.kind == tokRParen {
			p.pos++
		} else {
			p.repairs++
		}
		p.depth--
		if inner == nil {
			return nil
		}
		return Group{Expr: inner}
	}

	var words []string
	for {
		w, ok := p.peek()
		if !ok || w.kind != tokWord {
			break
		}
		words = append(words, w.raw)
		p.pos++
	}
	return Term{Text: strings.Join(words, " ")}
}

func startsOperand(k tokenKind) bool {
	return k == tokWord || k == tokLParen || k == tokNot
}

// combine joins two optional operands; a missing side yields the other.
func combine(op tokenKind, left, right Node) Node {
	switch {
	case left == nil:
		return right
	case right == nil:
		return left
	case op == tokOr:
		return Or{Left: left, Right: right}
	default:
		return And{Left: left, Right: right}
	}
}
