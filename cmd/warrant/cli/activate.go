package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/warrantd/warrant/internal/engine"
)

func newActivateCmd() *cobra.Command {
	var deviceInfo []string

	cmd := &cobra.Command{
		Use:   "activate <worker-id> <auth-code> <timestamp>",
		Short: "Redeem an auth code and bind this device",
		Long: `Redeem an auth code issued by 'warrant request'. The timestamp is the
issue instant printed alongside the code; both are needed because the
code is re-derived, never looked up. On success the signed device token
is printed as part of the result.`,
		Example: `  warrant activate W1001 A1B2C3D4 1735689600
  warrant activate W1001 A1B2C3D4 1735689600 --device os=linux --device host=build-7`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			issueTime, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid timestamp %q: %w", args[2], err)
			}

			info := map[string]string{}
			for _, kv := range deviceInfo {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("invalid --device value %q, expected key=value", kv)
				}
				info[k] = v
			}

			return runEngineOp(func(e *engine.Engine) (interface{}, error) {
				return e.Activate(context.Background(), args[0], args[1], issueTime, info)
			})
		},
	}

	cmd.Flags().StringArrayVar(&deviceInfo, "device", nil, "device attribute as key=value (repeatable)")

	return cmd
}
