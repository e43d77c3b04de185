package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage warrant configuration",
		Long:  "Initialize a default configuration file or display the current effective configuration.",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

// ---------- config init ----------

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default warrant.yaml configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")

	return cmd
}

const defaultConfig = `# Warrant Configuration

server:
  host: 0.0.0.0
  port: 8080
  shutdown_timeout: 30s
  auth_rate_per_minute: 60
  cors:
    origins:
      - "*"

auth:
  # The HMAC signing secret behind every auth code and token. Keep it out
  # of the file; the ${VAR} form is expanded from the environment at load.
  secret: ${WARRANT_SECRET}
  # SHA-256 of the operator key gating the ops endpoints.
  # Generate with: warrant operator hash-key
  operator_key_hash: ""
  # Secret for operator session tokens. Falls back to the signing secret.
  jwt_secret: ""

engine:
  token_expire_days: 30
  auth_code_valid_minutes: 10
  max_activations: 12

# Activation store driver: sqlite (default) or file (legacy JSON snapshot).
store:
  driver: sqlite

# Worker roster. Create an example with: warrant worker init
roster:
  path: workers.yaml

logging:
  level: info    # debug, info, warn, error
  format: text   # text or json
`

func runConfigInit(force bool) error {
	path := "warrant.yaml"

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Created %s\n", path)
	fmt.Println("Set WARRANT_SECRET, edit the roster, then run 'warrant serve'.")
	return nil
}

// ---------- config show ----------

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}
}

func runConfigShow() error {
	initConfig()

	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		fmt.Printf("Config file: %s\n", configFile)
	} else {
		fmt.Println("Config file: (none found, using defaults)")
	}
	fmt.Println()

	settings := viper.AllSettings()
	if len(settings) == 0 {
		fmt.Println("No configuration settings loaded.")
		fmt.Println("Run 'warrant config init' to create a default configuration file.")
		return nil
	}

	for key, value := range settings {
		if key == "auth" {
			// Never echo secrets.
			fmt.Println("  auth: (configured, hidden)")
			continue
		}
		fmt.Printf("  %s: %v\n", key, value)
	}

	return nil
}
