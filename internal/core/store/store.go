// Package store persists the ordered, prioritised rule set that the
// matcher selects from.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/solatis/sentenceparser/internal/types"
)

/*
 * Two backends implement RuleStore:
 *
 *   - SQLStore keeps rules in the rules table (sqlite or postgres) through
 *     the named queries in internal/core/db.
 *   - FileStore keeps rules in a YAML document so a rule set can live next
 *     to the code that uses it and be reviewed like any other file.
 *
 * Both return rules in authored order (Position ascending). Order matters:
 * the selector keeps the earliest rule when priorities tie.
 */

// RuleStore is the persistence contract shared by the CLI and the server.
type RuleStore interface {
	// List returns all rules in authored order.
	List(ctx context.Context) ([]types.Rule, error)

	// Get returns one rule by id.
	Get(ctx context.Context, id types.RuleID) (types.Rule, error)

	// Add appends a rule at the end of the authored order.
	Add(ctx context.Context, text string, priority int) (types.Rule, error)

	// SetPriority changes the priority of an existing rule.
	SetPriority(ctx context.Context, id types.RuleID, priority int) error

	// Remove deletes a rule.
	Remove(ctx context.Context, id types.RuleID) error

	// Move places a rule at a 1-based position in authored order,
	// shifting the rules in between. Returns ErrInvalidPosition when
	// position is outside 1..len(rules).
	Move(ctx context.Context, id types.RuleID, position int) error
}

// ValidateRuleText checks rule source against the authoring limits.
// Syntax is never rejected; the compiler repairs what it can.
func ValidateRuleText(text string) error {
	if strings.TrimSpace(text) == "" {
		return types.ErrEmptyRuleText
	}
	if len(text) > types.MaxRuleTextLength {
		return fmt.Errorf("%w: %d bytes (max %d)", types.ErrRuleTextTooLong, len(text), types.MaxRuleTextLength)
	}
	return nil
}

// Import appends rules to dst in order and returns how many were added.
// Ids and positions of the source rules are not preserved.
func Import(ctx context.Context, dst RuleStore, rules []types.Rule) (int, error) {
	for i, r := range rules {
		if _, err := dst.Add(ctx, r.Text, r.Priority); err != nil {
			return i, fmt.Errorf("failed to import rule %d: %w", i+1, err)
		}
	}
	return len(rules), nil
}
