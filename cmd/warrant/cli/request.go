package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/warrantd/warrant/internal/engine"
)

func newRequestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "request <worker-id>",
		Short: "Request an auth code for a worker",
		Long: `Request a short-lived authorization code for a worker. The code is valid
for a fixed window (10 minutes by default) and must be redeemed with
'warrant activate' together with the issue timestamp printed here.`,
		Example: `  warrant request W1001`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngineOp(func(e *engine.Engine) (interface{}, error) {
				return e.RequestAuth(context.Background(), args[0])
			})
		},
	}
}
