package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/solatis/sentenceparser/internal/core/db"
	"github.com/solatis/sentenceparser/internal/types"
)

// SQLStore implements RuleStore over the rules table.
type SQLStore struct {
	queries  *db.Queries
	maxRules int
}

// NewSQLStore creates a store over loaded named queries. The schema must
// already be migrated.
func NewSQLStore(queries *db.Queries) *SQLStore {
	return &SQLStore{queries: queries, maxRules: types.MaxRules}
}

// List returns rules ordered by position. A table holding more than
// MaxRules rules is an error rather than a silently truncated set.
func (s *SQLStore) List(ctx context.Context) ([]types.Rule, error) {
	var rules []types.Rule
	if err := s.queries.Select(ctx, "list-rules", &rules, s.maxRules+1); err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	if len(rules) > s.maxRules {
		return nil, fmt.Errorf("%w: more than %d rules stored", types.ErrTooManyRules, s.maxRules)
	}
	return rules, nil
}

// Get returns one rule or ErrRuleNotFound.
func (s *SQLStore) Get(ctx context.Context, id types.RuleID) (types.Rule, error) {
	return getRule(ctx, s.queries, id)
}

func getRule(ctx context.Context, q *db.Queries, id types.RuleID) (types.Rule, error) {
	var rule types.Rule
	err := q.Get(ctx, "get-rule", &rule, id)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Rule{}, fmt.Errorf("%w: %s", types.ErrRuleNotFound, id)
	}
	if err != nil {
		return types.Rule{}, fmt.Errorf("failed to get rule: %w", err)
	}
	return rule, nil
}

// Add inserts a rule after the current last position.
func (s *SQLStore) Add(ctx context.Context, text string, priority int) (types.Rule, error) {
	if err := ValidateRuleText(text); err != nil {
		return types.Rule{}, err
	}

	id := types.NewRuleID()
	now := time.Now().UTC()
	if _, err := s.queries.Exec(ctx, "insert-rule", id, text, priority, now); err != nil {
		return types.Rule{}, fmt.Errorf("failed to insert rule: %w", err)
	}

	return s.Get(ctx, id)
}

// SetPriority updates a rule's priority.
func (s *SQLStore) SetPriority(ctx context.Context, id types.RuleID, priority int) error {
	res, err := s.queries.Exec(ctx, "update-rule-priority", priority, id)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}
	return requireAffected(res, id)
}

// Remove deletes a rule.
func (s *SQLStore) Remove(ctx context.Context, id types.RuleID) error {
	res, err := s.queries.Exec(ctx, "delete-rule", id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	return requireAffected(res, id)
}

// Move places a rule at a 1-based position in authored order. Rules in
// between shift by one toward the vacated slot.
func (s *SQLStore) Move(ctx context.Context, id types.RuleID, position int) error {
	if position < 1 {
		return fmt.Errorf("%w: %d", types.ErrInvalidPosition, position)
	}

	return s.queries.InTx(ctx, func(q *db.Queries) error {
		rule, err := getRule(ctx, q, id)
		if err != nil {
			return err
		}

		var target int
		err = q.Get(ctx, "get-rule-position-at", &target, position-1)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %d", types.ErrInvalidPosition, position)
		}
		if err != nil {
			return fmt.Errorf("failed to resolve position: %w", err)
		}

		switch {
		case target == rule.Position:
			return nil
		case target > rule.Position:
			_, err = q.Exec(ctx, "shift-rule-positions-up", rule.Position, target)
		default:
			_, err = q.Exec(ctx, "shift-rule-positions-down", target, rule.Position)
		}
		if err != nil {
			return fmt.Errorf("failed to shift rules: %w", err)
		}

		if _, err := q.Exec(ctx, "update-rule-position", target, id); err != nil {
			return fmt.Errorf("failed to move rule: %w", err)
		}
		return nil
	})
}

func requireAffected(res sql.Result, id types.RuleID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", types.ErrRuleNotFound, id)
	}
	return nil
}
