package api

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/sentenceparser/internal/logging"
	"github.com/solatis/sentenceparser/internal/rules"
	"github.com/solatis/sentenceparser/internal/types"
)

// matchRecord is one line of the match history.
type matchRecord struct {
	Time     time.Time    `json:"time"`
	Sentence string       `json:"sentence"`
	Matched  bool         `json:"matched"`
	RuleID   types.RuleID `json:"rule_id,omitempty"`
	Priority int          `json:"priority,omitempty"`
	Result   string       `json:"result"`
}

// FindBestMatch selects the highest-priority rule matching a sentence.
//
// Request:  {sentence: string}
// Response: {matched: bool, result: string, rule_id: string, priority: number}
//
// result is the winning rule text, or "No match found".
func (s *MatcherService) FindBestMatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	defer logging.LogDuration(time.Now(), "find-best-match")

	sentence := req.GetFields()["sentence"].GetStringValue()
	if len(sentence) > s.cfg.Matcher.MaxSentenceLength {
		return nil, status.Error(codes.InvalidArgument,
			fmt.Sprintf("%v: %d bytes (max %d)", types.ErrSentenceTooLong, len(sentence), s.cfg.Matcher.MaxSentenceLength))
	}

	ruleSet, err := s.store.List(ctx)
	if err != nil {
		return nil, statusFor(err)
	}

	sel := s.engine.Select(ruleSet, sentence)

	// History file chosen at request start so a request spanning midnight
	// stays in one file
	now := time.Now().UTC()
	s.appendHistory(now, sentence, sel)

	return structpb.NewStruct(map[string]interface{}{
		"matched":  sel.Matched,
		"result":   sel.Result(),
		"rule_id":  string(sel.Rule.RuleID),
		"priority": sel.Rule.Priority,
	})
}

// appendHistory writes one JSONL record. Best-effort: failures are logged
// and never fail the request.
func (s *MatcherService) appendHistory(now time.Time, sentence string, sel rules.Selection) {
	filename := filepath.Join(historyDir(s.cfg.DataDir), now.Format("2006-01-02")+".jsonl")
	mu := s.getJSONLMutex(filename)

	mu.Lock()
	defer mu.Unlock()

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Warn().Err(err).Str("file", filename).Msg("Failed to open match history")
		return
	}
	defer f.Close()

	rec := matchRecord{
		Time:     now,
		Sentence: sentence,
		Matched:  sel.Matched,
		RuleID:   sel.Rule.RuleID,
		Priority: sel.Rule.Priority,
		Result:   sel.Result(),
	}
	if err := json.NewEncoder(f).Encode(rec); err != nil {
		log.Warn().Err(err).Str("file", filename).Msg("Failed to write match history")
	}
}
