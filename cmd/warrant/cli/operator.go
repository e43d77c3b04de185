package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/warrantd/warrant/internal/service"
)

func newOperatorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operator",
		Short: "Manage operator credentials",
		Long: `The ops endpoints of 'warrant serve' are gated by an operator key. The
server stores only the key's SHA-256 hash (auth.operator_key_hash in the
config file); this command derives that hash from the key.`,
	}

	cmd.AddCommand(newOperatorHashKeyCmd())

	return cmd
}

func newOperatorHashKeyCmd() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "hash-key",
		Short: "Print the SHA-256 hash of an operator key",
		Example: `  warrant operator hash-key            # prompts for the key
  warrant operator hash-key --key k    # non-interactive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				if !term.IsTerminal(int(os.Stdin.Fd())) {
					return fmt.Errorf("no operator key: pass --key or run interactively")
				}
				fmt.Fprint(os.Stderr, "Operator key: ")
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Fprintln(os.Stderr)
				if err != nil {
					return fmt.Errorf("read key: %w", err)
				}
				key = strings.TrimSpace(string(raw))
			}
			if key == "" {
				return fmt.Errorf("operator key must not be empty")
			}

			fmt.Fprintln(cmd.OutOrStdout(), service.HashKey(key))
			fmt.Fprintln(cmd.ErrOrStderr(), "Set this as auth.operator_key_hash in warrant.yaml.")
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Operator key (prompted if omitted)")

	return cmd
}
