// internal/rules/select.go
package rules

import (
	"math"

	"github.com/solatis/sentenceparser/internal/types"
)

/*
 * Priority selection.
 *
 * Linear scan over the rule set keeping (best, bestPriority) seeded with
 * (none, MinInt). A rule replaces the best only when its priority is
 * strictly greater, so among equal priorities the earliest rule in the
 * input order wins. O(n) per sentence with no index; rule sets are small
 * and evaluated once per submitted sentence.
 */

// Selection is the outcome of a priority scan.
type Selection struct {
	Rule    types.Rule // winning rule; zero value when !Matched
	Matched bool
}

// Result returns the winning rule text or types.NoMatch.
func (s Selection) Result() string {
	if !s.Matched {
		return types.NoMatch
	}
	return s.Rule.Text
}

// FindBestMatch returns the text of the highest-priority rule matching
// sentence, or types.NoMatch. Compiles every rule on each call; use an
// Engine to reuse compiled patterns across sentences.
func FindBestMatch(rules []types.Rule, sentence string) string {
	return selectBest(rules, sentence, CompileRule).Result()
}

func selectBest(rules []types.Rule, sentence string, compile func(string) *Pattern) Selection {
	var best Selection
	bestPriority := math.MinInt
	for _, rule := range rules {
		if !compile(rule.Text).Match(sentence) {
			continue
		}
		if !best.Matched || rule.Priority > bestPriority {
			best = Selection{Rule: rule, Matched: true}
			bestPriority = rule.Priority
		}
	}
	return best
}
