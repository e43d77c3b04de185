package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/warrantd/warrant/internal/engine"
)

func newStatusCmd() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the system status aggregate",
		Long: `Report roster size, active device count, and the time of the last state
change. By default the local store is read directly; with --server the
status is fetched from a running warrant server instead.`,
		Example: `  warrant status
  warrant status --server http://localhost:8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if serverURL != "" {
				return remoteStatus(serverURL)
			}
			return runEngineOp(func(e *engine.Engine) (interface{}, error) {
				return e.Status(context.Background())
			})
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "base URL of a running warrant server to query instead of the local store")

	return cmd
}

func remoteStatus(baseURL string) error {
	url := strings.TrimRight(baseURL, "/") + "/api/v1/status"
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("server not responding at %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	_, err = io.Copy(os.Stdout, resp.Body)
	return err
}
