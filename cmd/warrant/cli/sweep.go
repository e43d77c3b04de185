package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/warrantd/warrant/internal/engine"
)

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Mark expired activations",
		Long: `Flip every active activation whose token has expired to status expired.
Records are flagged, never deleted, so activation history survives the
sweep. Running the sweep twice in a row transitions nothing the second
time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngineOp(func(e *engine.Engine) (interface{}, error) {
				return e.Sweep(context.Background())
			})
		},
	}
}
