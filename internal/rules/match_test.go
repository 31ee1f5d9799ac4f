// internal/rules/match_test.go
package rules

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/solatis/sentenceparser/internal/types"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestMatch_ConstructionErrorIsNoMatch(t *testing.T) {
	buf := captureLog(t)

	p := newPattern("broken", "^(?=.*", 0, 0)
	if p.Valid() {
		t.Fatalf("Valid() = true, want false for %q", p.Source)
	}
	if !errors.Is(p.Err(), types.ErrPatternConstruction) {
		t.Errorf("Err() = %v, want ErrPatternConstruction", p.Err())
	}
	if p.Match("anything at all") {
		t.Errorf("Match() = true, want false")
	}
	if !strings.Contains(buf.String(), "Regex error in pattern") {
		t.Errorf("log output = %q, want diagnostic message", buf.String())
	}
	if !strings.Contains(buf.String(), "broken") {
		t.Errorf("log output = %q, want rule text", buf.String())
	}
}

func TestMatch_NilPattern(t *testing.T) {
	var p *Pattern
	if p.Match("anything") {
		t.Errorf("Match() = true, want false")
	}
}

func TestMatchRule(t *testing.T) {
	if !MatchRule("cats | dogs", "I like dogs") {
		t.Errorf("MatchRule() = false, want true")
	}
	if MatchRule("cats | dogs", "I like birds") {
		t.Errorf("MatchRule() = true, want false")
	}
}
