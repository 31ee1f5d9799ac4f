// internal/types/rules.go
package types

import "time"

/*
 * Domain types for sentence matching.
 *
 * Provides the Rule structure consumed by internal/rules for compilation
 * and priority selection, and produced by the rule stores in
 * internal/core/store. Rules are immutable inputs for the duration of a
 * match operation; stores own their lifecycle.
 *
 * Key types:
 *   - Rule: DSL source text plus priority and authored position
 *   - RuleID: UUIDv7 identifier minted by stores
 *
 * Dependencies: None (ids.go isolates the uuid import)
 */

// Rule is one matchable condition over a sentence.
type Rule struct {
	RuleID    RuleID    `db:"rule_id" yaml:"id,omitempty" json:"rule_id,omitempty"`
	Text      string    `db:"text" yaml:"text" json:"text"`
	Priority  int       `db:"priority" yaml:"priority" json:"priority"`
	Position  int       `db:"position" yaml:"-" json:"position"`
	CreatedAt time.Time `db:"created_at" yaml:"-" json:"created_at,omitempty"`
}

// NoMatch is the sentinel result when no rule matches a sentence.
const NoMatch = "No match found"
