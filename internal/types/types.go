// Package types provides domain models shared across SentenceParser components.
//
// Zero-dependency design: rules.go and errors.go use only the standard
// library so the compiler in internal/rules stays a pure leaf. ID utilities
// in ids.go import uuid but are isolated for selective inclusion.
package types

// Resource limits enforced at the store and API boundaries. The compiler
// itself accepts any input.
const (
	// MaxRuleTextLength bounds rule source size at authoring time.
	// 1KB fits any realistic hand-written rule.
	MaxRuleTextLength = 1024

	// MaxSentenceLength bounds a single submitted sentence.
	// Backtracking cost grows with sentence length times lookahead count.
	MaxSentenceLength = 4096

	// MaxRules caps rules returned by a store listing.
	MaxRules = 10000
)
