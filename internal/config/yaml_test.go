package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_WARRANT_SECRET", "from-the-environment")

	path := filepath.Join(t.TempDir(), "warrant.yaml")
	content := `
auth:
  secret: ${TEST_WARRANT_SECRET}
server:
  port: 9090
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.Secret != "from-the-environment" {
		t.Errorf("Secret: got %q, want expansion from env", cfg.Auth.Secret)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port: got %d, want 9090", cfg.Server.Port)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Engine.TokenExpireDays != 30 {
		t.Errorf("TokenExpireDays: got %d, want default 30", cfg.Engine.TokenExpireDays)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Errorf("Driver: got %q, want default sqlite", cfg.Store.Driver)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warrant.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warrant.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if cfg.Server.Port != def.Server.Port {
		t.Errorf("Port: got %d, want %d", cfg.Server.Port, def.Server.Port)
	}
	if cfg.Engine.AuthCodeValidMinutes != def.Engine.AuthCodeValidMinutes {
		t.Errorf("AuthCodeValidMinutes: got %d, want %d", cfg.Engine.AuthCodeValidMinutes, def.Engine.AuthCodeValidMinutes)
	}
}
