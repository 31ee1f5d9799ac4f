// internal/rules/term.go
package rules

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"

	"github.com/solatis/sentenceparser/internal/types"
)

/*
 * Term compilation.
 *
 * Turns one leaf phrase into a sub-pattern that finds the phrase anywhere
 * in a sentence:
 *
 *   banana[s]          -> .*\bbanana[s]?\b.*
 *   strawberr[y/ies]   -> .*\bstrawberr(y|ies)\b.*
 *   prefer strawberries -> .*\bprefer\b.*\bstrawberries\b.*
 *
 * Words of a phrase keep their order and are joined by the gap marker
 * '.*'. Word boundaries are only asserted on sides where the word has a
 * word character (or a bracket group), so "c++" still matches "c++ code".
 * Unterminated or empty brackets pass through as literal text.
 */

const gap = ".*"

// CompileTerm compiles a single leaf phrase into an anchored pattern.
// Returns types.ErrInvalidArgument for empty or whitespace-only text.
func CompileTerm(text string) (*Pattern, error) {
	src, err := termSource(text)
	if err != nil {
		return nil, err
	}
	return newPattern(text, "^"+src+"$", 0, 0), nil
}

// termSource returns the unanchored sub-pattern for a phrase.
func termSource(text string) (string, error) {
	text = strings.TrimSpace(text)
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	words := splitWords(text)
	if len(words) == 0 {
		return "", types.ErrInvalidArgument
	}

	parts := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) > 1 && w[0] == '&' {
			w = w[1:]
		}
		parts = append(parts, compileWord(w))
	}
	return gap + strings.Join(parts, gap) + gap, nil
}

// splitWords splits on whitespace outside of terminated [...] groups.
func splitWords(text string) []string {
	var words []string
	start := -1
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == '[' {
			if close := strings.IndexByte(text[i+size:], ']'); close >= 0 {
				if start < 0 {
					start = i
				}
				i += size + close + 1
				continue
			}
		}
		if unicode.IsSpace(r) {
			if start >= 0 {
				words = append(words, text[start:i])
				start = -1
			}
		} else if start < 0 {
			start = i
		}
		i += size
	}
	if start >= 0 {
		words = append(words, text[start:])
	}
	return words
}

// compileWord expands bracket notation and escapes everything else.
// A side gets a \b when it is a word character or an expanded bracket
// group; brackets kept as literal text count as plain symbols.
func compileWord(word string) string {
	var body strings.Builder
	groupFirst, groupLast := false, false

	literal := 0
	for i := 0; i < len(word); {
		if word[i] != '[' {
			i++
			continue
		}
		close := strings.IndexByte(word[i+1:], ']')
		if close < 0 {
			break
		}
		inner := word[i+1 : i+1+close]
		if inner == "" {
			i++
			continue
		}
		if i == 0 {
			groupFirst = true
		}
		body.WriteString(regexp2.Escape(word[literal:i]))
		body.WriteString(expandBracket(inner))
		i += close + 2
		literal = i
		groupLast = i == len(word)
	}
	body.WriteString(regexp2.Escape(word[literal:]))

	var b strings.Builder
	first, _ := utf8.DecodeRuneInString(word)
	if groupFirst || isWordRune(first) {
		b.WriteString(`\b`)
	}
	b.WriteString(body.String())
	last, _ := utf8.DecodeLastRuneInString(word)
	if groupLast || isWordRune(last) {
		b.WriteString(`\b`)
	}
	return b.String()
}

// expandBracket turns "y/ies" into (y|ies) and "s" into [s]?.
func expandBracket(inner string) string {
	if !strings.Contains(inner, "/") {
		return "[" + escapeClass(inner) + "]?"
	}
	alts := strings.Split(inner, "/")
	for i, a := range alts {
		alts[i] = regexp2.Escape(strings.TrimSpace(a))
	}
	return "(" + strings.Join(alts, "|") + ")"
}

func escapeClass(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', ']', '[', '^', '-':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
