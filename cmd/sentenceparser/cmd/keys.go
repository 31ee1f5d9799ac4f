package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/solatis/sentenceparser/internal/core/auth"
	"github.com/solatis/sentenceparser/internal/core/config"
)

func newKeysCmd(opts *rootOptions) *cobra.Command {
	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys for the matcher service",
	}

	var (
		name     string
		secretID string
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Mint a new API key",
		Long: `Mint a new API key signed with one of the configured HMAC secrets.

The key is printed once. Only its HMAC is stored, so it cannot be
recovered later.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secrets, err := config.HMACSecrets()
			if err != nil {
				return fmt.Errorf("failed to load HMAC secrets: %w", err)
			}
			id, secret, err := pickSecret(secrets, secretID)
			if err != nil {
				return err
			}

			database, queries, err := opts.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			keyID, key, err := auth.CreateKey(context.Background(), queries, id, secret, name)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.output == "json" {
				return writeJSON(out, map[string]string{"api_key_id": keyID, "api_key": key})
			}
			fmt.Fprintf(out, "api_key_id: %s\napi_key:    %s\n", keyID, key)
			return nil
		},
	}
	createCmd.Flags().StringVar(&name, "name", "default", "label stored with the key")
	createCmd.Flags().StringVar(&secretID, "secret-id", "", "HMAC secret to sign with (required when several are configured)")

	revokeCmd := &cobra.Command{
		Use:   "revoke <api-key-id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, queries, err := opts.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			if err := auth.RevokeKey(context.Background(), queries, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Revoked %s\n", args[0])
			return nil
		},
	}

	keysCmd.AddCommand(createCmd, revokeCmd)
	return keysCmd
}

// pickSecret selects the signing secret: the requested one, or the only
// one configured.
func pickSecret(secrets map[string][]byte, want string) (string, []byte, error) {
	if len(secrets) == 0 {
		return "", nil, fmt.Errorf("no HMAC secrets configured (set SP_HMAC_SECRET environment variable)")
	}
	if want != "" {
		secret, ok := secrets[want]
		if !ok {
			return "", nil, fmt.Errorf("secret id %s not configured", want)
		}
		return want, secret, nil
	}
	if len(secrets) > 1 {
		ids := make([]string, 0, len(secrets))
		for id := range secrets {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return "", nil, fmt.Errorf("several HMAC secrets configured, choose one with --secret-id: %v", ids)
	}
	for id, secret := range secrets {
		return id, secret, nil
	}
	return "", nil, nil
}
