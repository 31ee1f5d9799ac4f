package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/solatis/sentenceparser/internal/core/store"
	"github.com/solatis/sentenceparser/internal/types"
)

func newRulesCmd(opts *rootOptions) *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage the rule set",
	}

	var priority int
	addCmd := &cobra.Command{
		Use:   "add <rule>",
		Short: "Append a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, func(ctx context.Context, st store.RuleStore) error {
				rule, err := st.Add(ctx, args[0], priority)
				if err != nil {
					return err
				}
				if opts.output == "json" {
					return writeJSON(cmd.OutOrStdout(), rule)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added rule %s (priority %d, position %d)\n", rule.RuleID, rule.Priority, rule.Position)
				return nil
			})
		},
	}
	addCmd.Flags().IntVarP(&priority, "priority", "p", 0, "rule priority (higher wins)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List rules in authored order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, func(ctx context.Context, st store.RuleStore) error {
				ruleSet, err := st.List(ctx)
				if err != nil {
					return err
				}
				return printRules(cmd.OutOrStdout(), opts.output, ruleSet)
			})
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <rule-id>",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := types.ParseRuleID(args[0])
			if err != nil {
				return fmt.Errorf("invalid rule id: %w", err)
			}
			return withStore(opts, func(ctx context.Context, st store.RuleStore) error {
				if err := st.Remove(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed rule %s\n", id)
				return nil
			})
		},
	}

	setPriorityCmd := &cobra.Command{
		Use:   "set-priority <rule-id> <priority>",
		Short: "Change a rule's priority",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := types.ParseRuleID(args[0])
			if err != nil {
				return fmt.Errorf("invalid rule id: %w", err)
			}
			p, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid priority: %w", err)
			}
			return withStore(opts, func(ctx context.Context, st store.RuleStore) error {
				if err := st.SetPriority(ctx, id, p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rule %s priority set to %d\n", id, p)
				return nil
			})
		},
	}

	moveCmd := &cobra.Command{
		Use:   "move <rule-id> <position>",
		Short: "Move a rule to a 1-based position in authored order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := types.ParseRuleID(args[0])
			if err != nil {
				return fmt.Errorf("invalid rule id: %w", err)
			}
			pos, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid position: %w", err)
			}
			return withStore(opts, func(ctx context.Context, st store.RuleStore) error {
				if err := st.Move(ctx, id, pos); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rule %s moved to position %d\n", id, pos)
				return nil
			})
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Append rules from a YAML rules file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ruleSet, err := store.ReadFile(args[0])
			if err != nil {
				return err
			}
			return withStore(opts, func(ctx context.Context, st store.RuleStore) error {
				n, err := store.Import(ctx, st, ruleSet)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rules\n", n)
				return nil
			})
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export <file.yaml>",
		Short: "Write the rule set to a YAML rules file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, func(ctx context.Context, st store.RuleStore) error {
				ruleSet, err := st.List(ctx)
				if err != nil {
					return err
				}
				if err := store.WriteFile(args[0], ruleSet); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rules to %s\n", len(ruleSet), args[0])
				return nil
			})
		},
	}

	rulesCmd.AddCommand(addCmd, listCmd, removeCmd, setPriorityCmd, moveCmd, importCmd, exportCmd)
	return rulesCmd
}

// withStore opens the configured store for the duration of fn.
func withStore(opts *rootOptions, fn func(context.Context, store.RuleStore) error) error {
	st, closeStore, err := opts.openStore()
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(context.Background(), st)
}

func printRules(w io.Writer, format string, ruleSet []types.Rule) error {
	if format == "json" {
		if ruleSet == nil {
			ruleSet = []types.Rule{}
		}
		return writeJSON(w, ruleSet)
	}
	if len(ruleSet) == 0 {
		fmt.Fprintln(w, "No rules")
		return nil
	}
	for _, r := range ruleSet {
		fmt.Fprintf(w, "%-36s %6d  %s\n", r.RuleID, r.Priority, r.Text)
	}
	return nil
}
