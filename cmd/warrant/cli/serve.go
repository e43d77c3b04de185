package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/warrantd/warrant/internal/server"
	"github.com/warrantd/warrant/internal/service"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the warrant HTTP server",
		Long: `Start the HTTP server exposing the authorization endpoints, the status
aggregate, and the operator endpoints for sweeping and inspection.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port, cmd.Flags().Changed("host"), cmd.Flags().Changed("port"))
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(host string, port int, hostSet, portSet bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	e, st, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Info("engine initialized", "data_dir", resolveDataDir(), "roster", resolveRosterPath(cfg))

	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		// The ops surface is unusable without a session secret; fall back
		// to the signing secret rather than an empty key.
		jwtSecret, _ = resolveSecret(cfg)
	}
	opsSvc := service.NewOpsService(cfg.Auth.OperatorKeyHash, jwtSecret)
	if cfg.Auth.OperatorKeyHash == "" {
		logger.Warn("no operator key configured - ops endpoints will reject every session (run: warrant operator hash-key)")
	}

	srvCfg := server.DefaultConfig()
	if cfg.Server.Host != "" {
		srvCfg.Host = cfg.Server.Host
	}
	if cfg.Server.Port != 0 {
		srvCfg.Port = cfg.Server.Port
	}
	// Explicit flags beat the config file.
	if hostSet {
		srvCfg.Host = host
	}
	if portSet {
		srvCfg.Port = port
	}
	if origins := cfg.Server.CORS.Origins; len(origins) > 0 {
		srvCfg.CORSOrigins = origins
	}
	srvCfg.AuthRatePerMinute = cfg.Server.AuthRatePerMin
	if cfg.Server.ShutdownTimeout != "" {
		if d, err := time.ParseDuration(cfg.Server.ShutdownTimeout); err == nil {
			srvCfg.ShutdownTimeout = d
		}
	}

	srv := server.New(srvCfg, e, st, opsSvc, logger)

	fmt.Printf("→ Warrant %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", srvCfg.Host, srvCfg.Port)
	fmt.Printf("→ OpenAPI:    http://%s:%d/openapi.json\n", srvCfg.Host, srvCfg.Port)
	fmt.Printf("→ Health:     http://%s:%d/healthz\n", srvCfg.Host, srvCfg.Port)
	fmt.Println()

	return srv.ListenAndServe()
}
