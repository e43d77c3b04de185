package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/warrantd/warrant/internal/engine"
	"github.com/warrantd/warrant/internal/model"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <token>",
		Short: "Verify a device token",
		Long: `Verify a token issued by 'warrant activate'. The token is given as a JSON
document: inline, as @path to read from a file, or as - to read stdin.`,
		Example: `  warrant verify '{"worker_id":"W1001","expire_time":1738281600,...}'
  warrant verify @token.json
  cat token.json | warrant verify -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readTokenArg(args[0])
			if err != nil {
				return err
			}

			var token model.Token
			if err := json.Unmarshal(raw, &token); err != nil {
				return fmt.Errorf("parse token JSON: %w", err)
			}

			return runEngineOp(func(e *engine.Engine) (interface{}, error) {
				return e.Verify(context.Background(), &token)
			})
		},
	}
}

func readTokenArg(arg string) ([]byte, error) {
	switch {
	case arg == "-":
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read token from stdin: %w", err)
		}
		return raw, nil
	case strings.HasPrefix(arg, "@"):
		raw, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, fmt.Errorf("read token file: %w", err)
		}
		return raw, nil
	default:
		return []byte(arg), nil
	}
}
