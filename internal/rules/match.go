// internal/rules/match.go
package rules

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

/*
 * Rule matching.
 *
 * Match is the containment boundary for pattern failures: construction
 * errors recorded at compile time, engine errors such as a match timeout,
 * and panics from the regex engine all become a logged non-match. Callers
 * only ever see true or false.
 */

// Match reports whether sentence satisfies the pattern, case-insensitively.
func (p *Pattern) Match(sentence string) (matched bool) {
	if p == nil {
		return false
	}
	if p.err != nil {
		log.Error().Err(p.err).Str("pattern", p.Source).Str("rule", p.Rule).Msg("Regex error in pattern")
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("pattern", p.Source).Str("panic", fmt.Sprint(r)).Msg("Regex engine panicked")
			matched = false
		}
	}()

	ok, err := p.re.MatchString(sentence)
	if err != nil {
		log.Error().Err(err).Str("pattern", p.Source).Str("rule", p.Rule).Msg("Regex evaluation failed")
		return false
	}
	return ok
}

// MatchRule compiles ruleText and tests sentence against it.
func MatchRule(ruleText, sentence string) bool {
	return CompileRule(ruleText).Match(sentence)
}
