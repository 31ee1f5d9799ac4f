package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/solatis/sentenceparser/internal/core/config"
	"github.com/solatis/sentenceparser/internal/logging"
)

// Version is reported by --version and logged at server start.
const Version = "0.1.0"

// rootOptions holds global flags and the configuration they resolve to.
type rootOptions struct {
	configFile string
	dbURL      string
	rulesFile  string
	logLevel   string
	logFormat  string
	output     string

	cfg *config.Config
}

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "sentenceparser",
		Short: "Match sentences against prioritised word rules",
		Long: `SentenceParser compiles boolean word-matching rules such as

  (prefer [strawberry/strawberries]) !(like banana[s])

and reports the highest-priority rule a sentence satisfies.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&opts.dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&opts.rulesFile, "rules-file", "", "use a YAML rules file instead of the database")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (json, text)")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "output format (text, json)")

	rootCmd.AddCommand(newMigrateCmd(opts))
	rootCmd.AddCommand(newRulesCmd(opts))
	rootCmd.AddCommand(newCompileCmd(opts))
	rootCmd.AddCommand(newMatchCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newKeysCmd(opts))

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// setup loads configuration, applies flag overrides and configures logging.
// Flags win over environment, which wins over the config file.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	if o.output != "text" && o.output != "json" {
		return fmt.Errorf("invalid output format %q: must be text or json", o.output)
	}

	cfg, err := config.LoadConfig(o.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if o.dbURL != "" {
		cfg.DatabaseURL = o.dbURL
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	o.cfg = cfg

	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr()); err != nil {
		return err
	}
	log.Debug().Str("command", cmd.Name()).Msg("Command started")
	return nil
}
