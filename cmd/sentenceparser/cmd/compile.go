package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solatis/sentenceparser/internal/rules"
)

type compileOutput struct {
	Rule    string `json:"rule"`
	Pattern string `json:"pattern"`
	Repairs int    `json:"repairs"`
	Valid   bool   `json:"valid"`
	Tree    string `json:"tree,omitempty"`
	Error   string `json:"error,omitempty"`
}

func newCompileCmd(opts *rootOptions) *cobra.Command {
	var showTree bool

	compileCmd := &cobra.Command{
		Use:   "compile <rule>",
		Short: "Show the pattern a rule compiles to",
		Long: `Compile a rule without storing it and print the resulting pattern.

Unbalanced parentheses are repaired rather than rejected; the number of
repairs made is reported so a typo does not go unnoticed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			p := rules.CompileRule(text)

			out := compileOutput{
				Rule:    text,
				Pattern: p.Source,
				Repairs: p.Repairs,
				Valid:   p.Valid(),
			}
			if showTree {
				if root := rules.Parse(text).Root; root != nil {
					out.Tree = root.String()
				}
			}
			if err := p.Err(); err != nil {
				out.Error = err.Error()
			}

			w := cmd.OutOrStdout()
			if opts.output == "json" {
				if err := writeJSON(w, out); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(w, "pattern: %s\n", out.Pattern)
				fmt.Fprintf(w, "repairs: %d\n", out.Repairs)
				if out.Tree != "" {
					fmt.Fprintf(w, "tree:    %s\n", out.Tree)
				}
			}
			return p.Err()
		},
	}
	compileCmd.Flags().BoolVar(&showTree, "tree", false, "also print the parsed expression tree")

	return compileCmd
}
