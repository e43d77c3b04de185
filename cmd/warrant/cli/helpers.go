package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/warrantd/warrant/internal/config"
	"github.com/warrantd/warrant/internal/directory"
	"github.com/warrantd/warrant/internal/engine"
	"github.com/warrantd/warrant/internal/sign"
	"github.com/warrantd/warrant/internal/snapshot"
	"github.com/warrantd/warrant/internal/store"
)

// Persistent flag values set on the root command.
var (
	dataDir    string
	secretFlag string
)

// loadConfig returns the typed configuration: the file viper located (with
// ${VAR} expansion applied) or the built-in defaults when no file exists.
func loadConfig() (*config.YAMLConfig, error) {
	path := viper.ConfigFileUsed()
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// resolveDataDir returns the data directory from --data-dir, the
// WARRANT_DATA_DIR env var, or ~/.warrant as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("WARRANT_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return home + "/.warrant"
}

// resolveSecret returns the signing secret, in order of preference: the
// --secret flag, the WARRANT_SECRET env var, the config file, and finally
// a hidden terminal prompt.
func resolveSecret(cfg *config.YAMLConfig) (string, error) {
	if secretFlag != "" {
		return secretFlag, nil
	}
	if s := os.Getenv("WARRANT_SECRET"); s != "" {
		return s, nil
	}
	if s := cfg.Auth.Secret; s != "" {
		return s, nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no signing secret: set --secret, WARRANT_SECRET, or auth.secret in the config file")
	}
	fmt.Fprint(os.Stderr, "Signing secret: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	secret := strings.TrimSpace(string(raw))
	if secret == "" {
		return "", fmt.Errorf("signing secret must not be empty")
	}
	return secret, nil
}

// resolveRosterPath returns the worker roster location from config, or the
// default workers.yaml in the data directory.
func resolveRosterPath(cfg *config.YAMLConfig) string {
	if p := cfg.Roster.Path; p != "" {
		return p
	}
	return resolveDataDir() + "/workers.yaml"
}

// buildEngine wires the signer, roster, store, and snapshot recorder into a
// ready engine. The caller must Close the returned store.
func buildEngine(cfg *config.YAMLConfig, logger *slog.Logger) (*engine.Engine, store.ActivationStore, error) {
	secret, err := resolveSecret(cfg)
	if err != nil {
		return nil, nil, err
	}
	signer, err := sign.New(secret)
	if err != nil {
		return nil, nil, err
	}

	// A missing roster file loads as an empty roster, which fails every
	// admission check closed.
	dir, err := directory.LoadFile(resolveRosterPath(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("load roster: %w", err)
	}

	dd := resolveDataDir()
	if err := os.MkdirAll(dd, 0755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}

	st, err := store.Open(cfg.Store.Driver, dd)
	if err != nil {
		return nil, nil, fmt.Errorf("open activation store: %w", err)
	}

	recorder, err := snapshot.NewFileRecorder(dd)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("init result recorder: %w", err)
	}

	engCfg := engine.Config{
		TokenExpireDays:      cfg.Engine.TokenExpireDays,
		AuthCodeValidMinutes: cfg.Engine.AuthCodeValidMinutes,
		MaxActivations:       cfg.Engine.MaxActivations,
		Version:              versionString(),
	}

	e := engine.New(engCfg, signer, dir, st,
		engine.WithRecorder(recorder),
		engine.WithLogger(logger),
	)
	return e, st, nil
}

// newLogger builds the slog logger from the logging configuration.
func newLogger(cfg *config.YAMLConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Logging.Format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// quietLogger is used by the one-shot commands so engine logging does not
// interleave with the JSON envelope on stdout.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// runEngineOp loads config, builds the engine, runs op, and prints the
// returned envelope. Domain rejections are part of the envelope and exit
// zero; only infrastructure faults surface as command errors.
func runEngineOp(op func(*engine.Engine) (interface{}, error)) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, st, err := buildEngine(cfg, quietLogger())
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := op(e)
	if err != nil {
		return err
	}
	return printResult(res)
}

// printResult writes the result envelope as indented JSON on stdout.
func printResult(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
