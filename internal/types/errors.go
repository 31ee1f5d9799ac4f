package types

import "errors"

// Sentinel errors for SentenceParser operations.
var (
	// ErrInvalidArgument indicates an empty term was handed to the term compiler.
	ErrInvalidArgument = errors.New("invalid argument: term text is empty")

	// ErrPatternConstruction indicates an assembled pattern was rejected by the regex engine.
	ErrPatternConstruction = errors.New("pattern construction failed")

	// ErrRuleNotFound indicates a rule id does not exist in the store.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrEmptyRuleText indicates a rule with blank source text.
	ErrEmptyRuleText = errors.New("rule text is empty")

	// ErrRuleTextTooLong indicates rule text exceeds MaxRuleTextLength.
	ErrRuleTextTooLong = errors.New("rule text exceeds maximum length")

	// ErrInvalidPosition indicates a move target outside 1..len(rules).
	ErrInvalidPosition = errors.New("rule position out of range")

	// ErrTooManyRules indicates a stored rule set larger than MaxRules.
	ErrTooManyRules = errors.New("rule set exceeds maximum size")

	// ErrSentenceTooLong indicates a sentence exceeds MaxSentenceLength.
	ErrSentenceTooLong = errors.New("sentence exceeds maximum length")
)
