// internal/rules/engine.go
package rules

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/solatis/sentenceparser/internal/types"
)

// DefaultMaxCacheEntries bounds the compiled pattern cache.
const DefaultMaxCacheEntries = 4096

// Engine selects rules for sentences, caching compiled patterns by rule
// text. Patterns are immutable, so the cache is a read-mostly map behind
// an RWMutex and the Engine is safe for concurrent use.
type Engine struct {
	mu         sync.RWMutex
	cache      map[string]*Pattern
	maxEntries int
	timeout    time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithMatchTimeout bounds a single pattern evaluation. Zero disables it.
func WithMatchTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithMaxCacheEntries caps the cache. When full the cache is reset.
func WithMaxCacheEntries(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxEntries = n
		}
	}
}

// NewEngine creates a new rules engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		cache:      make(map[string]*Pattern),
		maxEntries: DefaultMaxCacheEntries,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compile returns the cached pattern for ruleText, compiling on miss.
func (e *Engine) Compile(ruleText string) *Pattern {
	e.mu.RLock()
	p, ok := e.cache[ruleText]
	e.mu.RUnlock()
	if ok {
		return p
	}

	p = compileRule(ruleText, e.timeout)
	log.Debug().Str("rule", ruleText).Str("pattern", p.Source).Int("repairs", p.Repairs).Msg("Compiled rule")

	e.mu.Lock()
	defer e.mu.Unlock()
	if existing, ok := e.cache[ruleText]; ok {
		return existing
	}
	if len(e.cache) >= e.maxEntries {
		e.cache = make(map[string]*Pattern)
	}
	e.cache[ruleText] = p
	return p
}

// Match reports whether sentence satisfies ruleText.
func (e *Engine) Match(ruleText, sentence string) bool {
	return e.Compile(ruleText).Match(sentence)
}

// Select returns the highest-priority rule matching sentence.
func (e *Engine) Select(rules []types.Rule, sentence string) Selection {
	return selectBest(rules, sentence, e.Compile)
}

// FindBestMatch returns the winning rule text or types.NoMatch.
func (e *Engine) FindBestMatch(rules []types.Rule, sentence string) string {
	return e.Select(rules, sentence).Result()
}

// Purge drops cached patterns whose text is not in rules and returns the
// number of entries removed. Call after a rule set changes.
func (e *Engine) Purge(rules []types.Rule) int {
	keep := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		keep[r.Text] = struct{}{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	removed := 0
	for text := range e.cache {
		if _, ok := keep[text]; !ok {
			delete(e.cache, text)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached patterns.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}
