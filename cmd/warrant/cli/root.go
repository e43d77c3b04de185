// Package cli wires the warrant command tree. Every lifecycle operation is
// available from the command line; `warrant serve` exposes the same engine
// over HTTP.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile    string
	appVersion string
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warrant",
		Short: "Device authorization and token lifecycle engine",
		Long: `Warrant issues short-lived auth codes to authorized workers, exchanges
them for signed device tokens, and tracks one activation per worker.

Auth codes are derived, not stored: the same HMAC that issued a code
re-derives it at redemption, so the engine needs no pending-code state.
Tokens carry their own tamper-evident signature and expiry.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./warrant.yaml)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for activation state (default: ~/.warrant)")
	cmd.PersistentFlags().StringVar(&secretFlag, "secret", "", "signing secret (default: WARRANT_SECRET env var, prompted if unset)")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newRequestCmd())
	cmd.AddCommand(newActivateCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newSweepCmd())
	cmd.AddCommand(newWorkerCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newOperatorCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newOpenAPICmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("warrant")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.warrant")
	}

	viper.SetEnvPrefix("WARRANT")
	viper.AutomaticEnv()
	viper.ReadInConfig() // config file is optional
}
