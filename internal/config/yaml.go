// Package config loads the warrant.yaml configuration file. Secrets are
// normally referenced as ${VAR} placeholders and expanded from the
// environment at load time, so the file itself stays free of credentials.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the top-level warrant configuration file.
type YAMLConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Engine  EngineConfig  `yaml:"engine"`
	Store   StoreConfig   `yaml:"store"`
	Roster  RosterConfig  `yaml:"roster"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string     `yaml:"host"`
	Port            int        `yaml:"port"`
	ShutdownTimeout string     `yaml:"shutdown_timeout"`
	AuthRatePerMin  int        `yaml:"auth_rate_per_minute"`
	CORS            CORSConfig `yaml:"cors"`
}

// CORSConfig controls cross-origin resource sharing settings.
type CORSConfig struct {
	Origins []string `yaml:"origins"`
}

// AuthConfig holds the signing secret and the operator credentials.
// Secret and JWTSecret are usually ${WARRANT_SECRET} / ${WARRANT_JWT_SECRET}
// references rather than literals.
type AuthConfig struct {
	Secret          string `yaml:"secret"`
	OperatorKeyHash string `yaml:"operator_key_hash"`
	JWTSecret       string `yaml:"jwt_secret"`
}

// EngineConfig holds the lifecycle tunables.
type EngineConfig struct {
	TokenExpireDays      int `yaml:"token_expire_days"`
	AuthCodeValidMinutes int `yaml:"auth_code_valid_minutes"`
	MaxActivations       int `yaml:"max_activations"`
}

// StoreConfig selects the activation store driver.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "sqlite" (default) or "file"
}

// RosterConfig points at the worker roster file. An empty path falls back
// to workers.yaml in the data directory.
type RosterConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses a YAML configuration file. Environment variables
// referenced as ${VAR_NAME} in the file are expanded before parsing.
func Load(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	content := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// Default returns a YAMLConfig pre-filled with production defaults.
func Default() *YAMLConfig {
	return &YAMLConfig{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: "30s",
			AuthRatePerMin:  60,
			CORS: CORSConfig{
				Origins: []string{"*"},
			},
		},
		Auth: AuthConfig{},
		Engine: EngineConfig{
			TokenExpireDays:      30,
			AuthCodeValidMinutes: 10,
			MaxActivations:       12,
		},
		Store: StoreConfig{
			Driver: "sqlite",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// WriteDefault writes the default configuration to a YAML file.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
