package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadParsesAllSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	contents := `
name: goqtt
version: 0.1.0
server:
  port: "1883"
auth:
  allow_anonymous: false
  db_path: "./store/store.db"
logging:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Name != "goqtt" || cfg.Version != "0.1.0" {
		t.Errorf("unexpected identity fields: %+v", cfg)
	}
	if cfg.Server.Port != "1883" {
		t.Errorf("Server.Port = %q", cfg.Server.Port)
	}
	if cfg.Auth.AllowAnonymous {
		t.Error("AllowAnonymous should be false")
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte("name: goqtt\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "1883" {
		t.Errorf("default Server.Port = %q, want 1883", cfg.Server.Port)
	}
	if cfg.Auth.DBPath != "./store/store.db" {
		t.Errorf("default Auth.DBPath = %q", cfg.Auth.DBPath)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yml"); err == nil {
		t.Error("expected an error for a missing config file")
	}
}
