package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/solatis/sentenceparser/internal/core/api"
	"github.com/solatis/sentenceparser/internal/core/auth"
	"github.com/solatis/sentenceparser/internal/core/config"
	"github.com/solatis/sentenceparser/internal/core/server"
	"github.com/solatis/sentenceparser/internal/core/store"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gRPC matcher service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("host") {
				opts.cfg.Server.Host, _ = cmd.Flags().GetString("host")
			}
			if cmd.Flags().Changed("port") {
				opts.cfg.Server.Port, _ = cmd.Flags().GetInt("port")
			}
			return runServe(cmd.Context(), opts)
		},
	}
	serveCmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	serveCmd.Flags().Int("port", 50052, "gRPC server port")

	return serveCmd
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg := opts.cfg

	// The database always backs API keys, even when rules come from a file
	database, queries, err := opts.openDB()
	if err != nil {
		return err
	}
	defer database.Close()

	var rs store.RuleStore = store.NewSQLStore(queries)
	if opts.rulesFile != "" {
		rs = store.NewFileStore(opts.rulesFile)
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		log.Warn().Msg("No HMAC secrets configured (set SP_HMAC_SECRET); AddRule and RemoveRule will reject every call")
	}
	authenticator := auth.NewAuthenticator(secrets, queries)

	service, err := api.NewMatcherService(rs, opts.newEngine(), cfg)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(&cfg.Server, service, authenticator)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	log.Info().
		Str("version", Version).
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("Starting SentenceParser matcher service")

	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		log.Info().Msg("Shutting down gracefully")
		return grpcServer.Shutdown(ctx)
	}
}
