package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/solatis/sentenceparser/internal/core/api"
	"github.com/solatis/sentenceparser/internal/types"
)

// matchFunc resolves one sentence to the winning rule.
type matchFunc func(ctx context.Context, sentence string) (api.MatchResult, error)

type matchOutput struct {
	Sentence string       `json:"sentence"`
	Matched  bool         `json:"matched"`
	Result   string       `json:"result"`
	RuleID   types.RuleID `json:"rule_id,omitempty"`
	Priority int          `json:"priority,omitempty"`
}

func newMatchCmd(opts *rootOptions) *cobra.Command {
	var (
		serverAddr string
		timeout    time.Duration
	)

	matchCmd := &cobra.Command{
		Use:   "match [sentence]",
		Short: "Print the highest-priority rule a sentence satisfies",
		Long: `Match a sentence against the rule set and print the winning rule text,
or "No match found".

With no arguments, sentences are read from standard input one per line.
Rules come from the database, from --rules-file, or from a running server
given with --server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			match, closeFn, err := opts.matcher(serverAddr)
			if err != nil {
				return err
			}
			defer closeFn()

			run := func(sentence string) error {
				ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
				defer cancel()
				return matchOne(ctx, cmd.OutOrStdout(), opts.output, match, sentence)
			}

			if len(args) > 0 {
				return run(strings.Join(args, " "))
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if err := run(line); err != nil {
					return err
				}
			}
			return scanner.Err()
		},
	}
	matchCmd.Flags().StringVar(&serverAddr, "server", "", "match against a running server (host:port)")
	matchCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "per-sentence timeout")

	return matchCmd
}

// matcher selects the rule source. Local sources reload the rule set per
// sentence so edits from another process are seen.
func (o *rootOptions) matcher(serverAddr string) (matchFunc, func(), error) {
	if serverAddr != "" {
		conn, err := grpc.NewClient(serverAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to %s: %w", serverAddr, err)
		}
		client := api.NewClient(conn, "")
		return client.FindBestMatch, func() { conn.Close() }, nil
	}

	st, closeStore, err := o.openStore()
	if err != nil {
		return nil, nil, err
	}
	engine := o.newEngine()
	maxLen := o.cfg.Matcher.MaxSentenceLength

	match := func(ctx context.Context, sentence string) (api.MatchResult, error) {
		if len(sentence) > maxLen {
			return api.MatchResult{}, fmt.Errorf("%w: %d bytes (max %d)", types.ErrSentenceTooLong, len(sentence), maxLen)
		}
		ruleSet, err := st.List(ctx)
		if err != nil {
			return api.MatchResult{}, err
		}
		sel := engine.Select(ruleSet, sentence)
		return api.MatchResult{
			Matched:  sel.Matched,
			Result:   sel.Result(),
			RuleID:   sel.Rule.RuleID,
			Priority: sel.Rule.Priority,
		}, nil
	}
	return match, closeStore, nil
}

func matchOne(ctx context.Context, w io.Writer, format string, match matchFunc, sentence string) error {
	res, err := match(ctx, sentence)
	if err != nil {
		return err
	}
	if format == "json" {
		return writeJSON(w, matchOutput{
			Sentence: sentence,
			Matched:  res.Matched,
			Result:   res.Result,
			RuleID:   res.RuleID,
			Priority: res.Priority,
		})
	}
	_, err = fmt.Fprintln(w, res.Result)
	return err
}
