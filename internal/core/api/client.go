package api

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/sentenceparser/internal/types"
)

// Client calls a remote Matcher service.
type Client struct {
	conn   grpc.ClientConnInterface
	apiKey string
}

// MatchResult is the decoded FindBestMatch response.
type MatchResult struct {
	Matched  bool
	Result   string
	RuleID   types.RuleID
	Priority int
}

// CompileResult is the decoded CompileRule response.
type CompileResult struct {
	Pattern string
	Repairs int
	Valid   bool
	Error   string
}

// NewClient wraps an established connection. apiKey may be empty when
// only read methods are used.
func NewClient(conn grpc.ClientConnInterface, apiKey string) *Client {
	return &Client{conn: conn, apiKey: apiKey}
}

func (c *Client) invoke(ctx context.Context, method string, in map[string]interface{}) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	if c.apiKey != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "x-api-key", c.apiKey)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindBestMatch submits a sentence for matching.
func (c *Client) FindBestMatch(ctx context.Context, sentence string) (MatchResult, error) {
	out, err := c.invoke(ctx, MethodFindBestMatch, map[string]interface{}{"sentence": sentence})
	if err != nil {
		return MatchResult{}, err
	}
	f := out.GetFields()
	return MatchResult{
		Matched:  f["matched"].GetBoolValue(),
		Result:   f["result"].GetStringValue(),
		RuleID:   types.RuleID(f["rule_id"].GetStringValue()),
		Priority: int(f["priority"].GetNumberValue()),
	}, nil
}

// CompileRule asks the server how it interprets rule text.
func (c *Client) CompileRule(ctx context.Context, text string) (CompileResult, error) {
	out, err := c.invoke(ctx, MethodCompileRule, map[string]interface{}{"text": text})
	if err != nil {
		return CompileResult{}, err
	}
	f := out.GetFields()
	return CompileResult{
		Pattern: f["pattern"].GetStringValue(),
		Repairs: int(f["repairs"].GetNumberValue()),
		Valid:   f["valid"].GetBoolValue(),
		Error:   f["error"].GetStringValue(),
	}, nil
}

// ListRules returns the server's rule set and its etag.
func (c *Client) ListRules(ctx context.Context) ([]types.Rule, string, error) {
	out, err := c.invoke(ctx, MethodListRules, map[string]interface{}{})
	if err != nil {
		return nil, "", err
	}
	var ruleSet []types.Rule
	for _, v := range out.GetFields()["rules"].GetListValue().GetValues() {
		ruleSet = append(ruleSet, decodeRule(v.GetStructValue()))
	}
	return ruleSet, out.GetFields()["etag"].GetStringValue(), nil
}

// AddRule appends a rule on the server.
func (c *Client) AddRule(ctx context.Context, text string, priority int) (types.Rule, error) {
	out, err := c.invoke(ctx, MethodAddRule, map[string]interface{}{"text": text, "priority": priority})
	if err != nil {
		return types.Rule{}, err
	}
	return decodeRule(out), nil
}

// RemoveRule deletes a rule on the server.
func (c *Client) RemoveRule(ctx context.Context, id types.RuleID) error {
	_, err := c.invoke(ctx, MethodRemoveRule, map[string]interface{}{"rule_id": string(id)})
	return err
}

func decodeRule(s *structpb.Struct) types.Rule {
	f := s.GetFields()
	r := types.Rule{
		RuleID:   types.RuleID(f["rule_id"].GetStringValue()),
		Text:     f["text"].GetStringValue(),
		Priority: int(f["priority"].GetNumberValue()),
		Position: int(f["position"].GetNumberValue()),
	}
	if ts := f["created_at"].GetStringValue(); ts != "" {
		r.CreatedAt, _ = time.Parse(time.RFC3339, ts)
	}
	return r
}
