// internal/rules/compile.go
package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/solatis/sentenceparser/internal/types"
)

/*
 * Rule compilation.
 *
 * Compiles rule text to a Pattern: tokenize -> parse -> emit -> construct.
 *
 * Every tree node is emitted as a zero-width assertion evaluated at the
 * start of the sentence, so clauses carry no ordering constraint between
 * them:
 *
 *   Term t      -> (?=<term>)
 *   Group e     -> (?=<content e>)
 *   Not e       -> (?!<content e>)      Group operands are unwrapped
 *   And a b     -> <a><b>
 *   Or a b      -> (?:<a>|<b>)
 *
 * The assertions are anchored and followed by a non-empty remainder:
 * ^<root>.+$. An empty rule therefore matches any non-empty sentence.
 *
 * Compilation is pure: the same text always yields the same source, which
 * makes Patterns safe to cache by rule text. Regex construction errors are
 * kept on the Pattern and reported at match time instead of returned.
 */

// Pattern is a compiled rule, immutable and safe for concurrent use.
type Pattern struct {
	Rule    string // rule or term text the pattern was compiled from
	Source  string // regex source
	Repairs int    // parenthesis repairs applied while parsing

	re  *regexp2.Regexp
	err error
}

// Err returns the construction error, or nil for a usable pattern.
func (p *Pattern) Err() error {
	return p.err
}

// Valid reports whether the regex engine accepted the pattern.
func (p *Pattern) Valid() bool {
	return p.err == nil && p.re != nil
}

func (p *Pattern) String() string {
	return p.Source
}

// CompileRule compiles rule text into a Pattern. Never fails; malformed
// input is repaired or degrades to a pattern that never matches.
func CompileRule(ruleText string) *Pattern {
	return compileRule(ruleText, 0)
}

func compileRule(ruleText string, timeout time.Duration) *Pattern {
	if phrase, ok := wordRun(ruleText); ok {
		// single clause, no operators: straight to the term compiler
		src, err := termSource(phrase)
		if err == nil {
			return newPattern(ruleText, "^(?="+src+").+$", 0, timeout)
		}
	}

	parsed := Parse(ruleText)
	var b strings.Builder
	b.WriteString("^")
	if parsed.Root != nil {
		emit(&b, parsed.Root)
	}
	b.WriteString(".+$")
	return newPattern(ruleText, b.String(), parsed.Repairs, timeout)
}

func newPattern(rule, source string, repairs int, timeout time.Duration) *Pattern {
	p := &Pattern{Rule: rule, Source: source, Repairs: repairs}
	re, err := regexp2.Compile(source, regexp2.IgnoreCase)
	if err != nil {
		p.err = fmt.Errorf("%w: %v", types.ErrPatternConstruction, err)
		return p
	}
	if timeout > 0 {
		re.MatchTimeout = timeout
	}
	p.re = re
	return p
}

// wordRun returns the phrase when text holds only word tokens.
func wordRun(text string) (string, bool) {
	toks := tokenize(text)
	if len(toks) == 0 {
		return "", false
	}
	words := make([]string, 0, len(toks))
	for _, t := range toks {
		if t.kind != tokWord {
			return "", false
		}
		words = append(words, t.raw)
	}
	return strings.Join(words, " "), true
}

func emit(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case Term:
		b.WriteString("(?=")
		content(b, n)
		b.WriteString(")")
	case Group:
		b.WriteString("(?=")
		content(b, n.Expr)
		b.WriteString(")")
	case Not:
		inner := n.Expr
		if g, ok := inner.(Group); ok {
			inner = g.Expr
		}
		b.WriteString("(?!")
		content(b, inner)
		b.WriteString(")")
	case And:
		emit(b, n.Left)
		emit(b, n.Right)
	case Or:
		b.WriteString("(?:")
		emit(b, n.Left)
		b.WriteString("|")
		emit(b, n.Right)
		b.WriteString(")")
	}
}

// content writes the body placed inside a lookahead: the raw term for
// leaves, the emitted assertion chain for everything else.
func content(b *strings.Builder, n Node) {
	if t, ok := n.(Term); ok {
		src, err := termSource(t.Text)
		if err != nil {
			return
		}
		b.WriteString(src)
		return
	}
	emit(b, n)
}
