package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/solatis/sentenceparser/internal/types"
)

// ruleFile is the on-disk YAML document:
//
//	rules:
//	  - id: 0190...
//	    text: (prefer [strawberry/strawberries]) !(like banana[s])
//	    priority: 10
type ruleFile struct {
	Rules []types.Rule `yaml:"rules"`
}

// FileStore implements RuleStore over a YAML file. Every call reads the
// file, so edits made by hand are picked up without a restart. Writes
// replace the file atomically.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by path. The file need not exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// List returns the rules in file order.
func (s *FileStore) List(ctx context.Context) ([]types.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ReadFile(s.path)
}

// Get returns one rule or ErrRuleNotFound.
func (s *FileStore) Get(ctx context.Context, id types.RuleID) (types.Rule, error) {
	rules, err := s.List(ctx)
	if err != nil {
		return types.Rule{}, err
	}
	i := indexOf(rules, id)
	if i < 0 {
		return types.Rule{}, fmt.Errorf("%w: %s", types.ErrRuleNotFound, id)
	}
	return rules[i], nil
}

// Add appends a rule to the file.
func (s *FileStore) Add(ctx context.Context, text string, priority int) (types.Rule, error) {
	if err := ValidateRuleText(text); err != nil {
		return types.Rule{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := ReadFile(s.path)
	if err != nil {
		return types.Rule{}, err
	}

	id := types.NewRuleID()
	rule := types.Rule{
		RuleID:    id,
		Text:      text,
		Priority:  priority,
		Position:  len(rules) + 1,
		CreatedAt: types.RuleIDTime(id),
	}
	if err := WriteFile(s.path, append(rules, rule)); err != nil {
		return types.Rule{}, err
	}
	return rule, nil
}

// SetPriority updates a rule's priority in place.
func (s *FileStore) SetPriority(ctx context.Context, id types.RuleID, priority int) error {
	return s.update(id, func(rules []types.Rule, i int) []types.Rule {
		rules[i].Priority = priority
		return rules
	})
}

// Remove deletes a rule. Later rules move up one position.
func (s *FileStore) Remove(ctx context.Context, id types.RuleID) error {
	return s.update(id, func(rules []types.Rule, i int) []types.Rule {
		return append(rules[:i], rules[i+1:]...)
	})
}

// Move places a rule at a 1-based position in file order.
func (s *FileStore) Move(ctx context.Context, id types.RuleID, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := ReadFile(s.path)
	if err != nil {
		return err
	}
	i := indexOf(rules, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", types.ErrRuleNotFound, id)
	}
	if position < 1 || position > len(rules) {
		return fmt.Errorf("%w: %d (have %d rules)", types.ErrInvalidPosition, position, len(rules))
	}

	rule := rules[i]
	rules = append(rules[:i], rules[i+1:]...)
	rules = append(rules[:position-1], append([]types.Rule{rule}, rules[position-1:]...)...)
	return WriteFile(s.path, rules)
}

func (s *FileStore) update(id types.RuleID, fn func([]types.Rule, int) []types.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := ReadFile(s.path)
	if err != nil {
		return err
	}
	i := indexOf(rules, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", types.ErrRuleNotFound, id)
	}
	return WriteFile(s.path, fn(rules, i))
}

// ReadFile loads a YAML rule document. A missing file is an empty rule
// set. Positions follow file order; rules written by hand may lack ids.
func ReadFile(path string) ([]types.Rule, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var doc ruleFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	if len(doc.Rules) > types.MaxRules {
		return nil, fmt.Errorf("%w: %s has %d rules (max %d)", types.ErrTooManyRules, path, len(doc.Rules), types.MaxRules)
	}

	for i := range doc.Rules {
		doc.Rules[i].Position = i + 1
		if doc.Rules[i].RuleID != "" {
			doc.Rules[i].CreatedAt = types.RuleIDTime(doc.Rules[i].RuleID)
		}
	}
	return doc.Rules, nil
}

// WriteFile stores rules as a YAML document, replacing path atomically.
func WriteFile(path string, rules []types.Rule) error {
	if rules == nil {
		rules = []types.Rule{}
	}
	data, err := yaml.Marshal(ruleFile{Rules: rules})
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create rules directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".rules-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write rules: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write rules: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace rules file: %w", err)
	}
	return nil
}

func indexOf(rules []types.Rule, id types.RuleID) int {
	for i, r := range rules {
		if r.RuleID == id {
			return i
		}
	}
	return -1
}
