package api

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/sentenceparser/internal/types"
)

// ListRules returns the rule set in authored order.
//
// Request:  {}
// Response: {rules: [{rule_id, text, priority, position, created_at}], etag: string}
//
// etag changes whenever any rule's id, text or priority changes.
func (s *MatcherService) ListRules(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ruleSet, err := s.store.List(ctx)
	if err != nil {
		return nil, statusFor(err)
	}

	list := make([]interface{}, 0, len(ruleSet))
	for _, r := range ruleSet {
		list = append(list, ruleFields(r))
	}

	return structpb.NewStruct(map[string]interface{}{
		"rules": list,
		"etag":  computeETAG(ruleSet),
	})
}

// AddRule appends a rule. Requires an API key.
//
// Request:  {text: string, priority: number}
// Response: the stored rule
func (s *MatcherService) AddRule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	text := fields["text"].GetStringValue()

	priority, err := intField(fields["priority"])
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("priority: %v", err))
	}

	rule, err := s.store.Add(ctx, text, priority)
	if err != nil {
		return nil, statusFor(err)
	}

	return structpb.NewStruct(ruleFields(rule))
}

// RemoveRule deletes a rule and drops patterns no longer in use from the
// engine cache. Requires an API key.
//
// Request:  {rule_id: string}
// Response: {}
func (s *MatcherService) RemoveRule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := types.ParseRuleID(req.GetFields()["rule_id"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("invalid rule_id: %v", err))
	}

	if err := s.store.Remove(ctx, id); err != nil {
		return nil, statusFor(err)
	}

	if remaining, err := s.store.List(ctx); err == nil {
		s.engine.Purge(remaining)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{}}, nil
}

// CompileRule compiles rule text without storing it, for checking how a
// rule will be interpreted.
//
// Request:  {text: string}
// Response: {pattern: string, repairs: number, valid: bool, error: string}
func (s *MatcherService) CompileRule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	text := req.GetFields()["text"].GetStringValue()
	if len(text) > types.MaxRuleTextLength {
		return nil, status.Error(codes.InvalidArgument, types.ErrRuleTextTooLong.Error())
	}

	p := s.engine.Compile(text)
	out := map[string]interface{}{
		"pattern": p.Source,
		"repairs": p.Repairs,
		"valid":   p.Valid(),
	}
	if err := p.Err(); err != nil {
		out["error"] = err.Error()
	}
	return structpb.NewStruct(out)
}

func ruleFields(r types.Rule) map[string]interface{} {
	fields := map[string]interface{}{
		"rule_id":  string(r.RuleID),
		"text":     r.Text,
		"priority": r.Priority,
		"position": r.Position,
	}
	if !r.CreatedAt.IsZero() {
		fields["created_at"] = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	return fields
}

// intField reads a whole number from a Struct value. A missing value is 0.
func intField(v *structpb.Value) (int, error) {
	if v == nil {
		return 0, nil
	}
	if _, ok := v.GetKind().(*structpb.Value_NumberValue); !ok {
		return 0, fmt.Errorf("must be a number")
	}
	n := v.GetNumberValue()
	if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
		return 0, fmt.Errorf("must be a 32-bit integer, got %v", n)
	}
	return int(n), nil
}

// computeETAG hashes rule ids, priorities and texts in order.
func computeETAG(ruleSet []types.Rule) string {
	h := sha256.New()
	for _, r := range ruleSet {
		fmt.Fprintf(h, "%s\x00%d\x00%s\x00", r.RuleID, r.Priority, r.Text)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
