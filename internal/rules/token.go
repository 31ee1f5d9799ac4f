// internal/rules/token.go
package rules

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

/*
 * Rule text tokenizer.
 *
 * Splits DSL source into Word, LParen, RParen, And, Or and Not tokens.
 * Word runs are scanned greedily before operators are considered, so a
 * '&' or '!' inside a word is literal text and never an operator.
 *
 * Operator disambiguation:
 *   - '&' followed by a letter/digit is a continuation marker; it is
 *     dropped and the word that follows joins the current phrase
 *   - '&' followed by anything else is the AND operator
 *   - '"..."' is one Word token, quotes stripped, inner spaces kept
 *   - '[...]' inside a word is kept whole even when it contains spaces
 */

type tokenKind int

const (
	tokWord tokenKind = iota
	tokLParen
	tokRParen
	tokAnd
	tokOr
	tokNot
)

func (k tokenKind) String() string {
	switch k {
	case tokWord:
		return "Word"
	case tokLParen:
		return "LParen"
	case tokRParen:
		return "RParen"
	case tokAnd:
		return "And"
	case tokOr:
		return "Or"
	case tokNot:
		return "Not"
	default:
		return "Unknown"
	}
}

type token struct {
	kind tokenKind
	raw  string // word text; empty for punctuation tokens
	pos  int    // byte offset in source
}

// tokenize scans src into tokens. Never fails: unterminated quotes run to
// end of input and unterminated brackets are literal characters.
func tokenize(src string) []token {
	var toks []token
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '(':
			toks = append(toks, token{kind: tokLParen, pos: i})
			i += size
		case r == ')':
			toks = append(toks, token{kind: tokRParen, pos: i})
			i += size
		case r == '|':
			toks = append(toks, token{kind: tokOr, pos: i})
			i += size
		case r == '!':
			toks = append(toks, token{kind: tokNot, pos: i})
			i += size
		case r == '&':
			next, _ := utf8.DecodeRuneInString(src[i+size:])
			if !isAlnum(next) {
				toks = append(toks, token{kind: tokAnd, pos: i})
			}
			i += size
		case r == '"':
			start := i + size
			end := strings.IndexByte(src[start:], '"')
			var text string
			if end < 0 {
				text = src[start:]
				i = len(src)
			} else {
				text = src[start : start+end]
				i = start + end + 1
			}
			if text = strings.TrimSpace(text); text != "" {
				toks = append(toks, token{kind: tokWord, raw: text, pos: start})
			}
		default:
			end := scanWord(src, i)
			toks = append(toks, token{kind: tokWord, raw: src[i:end], pos: i})
			i = end
		}
	}
	return toks
}

// scanWord returns the end offset of the word run starting at start.
func scanWord(src string, start int) int {
	i := start
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		if r == '[' {
			if close := strings.IndexByte(src[i+size:], ']'); close >= 0 {
				i += size + close + 1
				continue
			}
		}
		if unicode.IsSpace(r) || r == '(' || r == ')' || r == '|' || r == '"' {
			break
		}
		i += size
	}
	return i
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
