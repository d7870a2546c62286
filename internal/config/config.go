// Package config loads the broker's YAML configuration file, matching
// the teacher's inline Config/Server structs but extended with the
// Auth and Logging sections a full deployment needs.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level config.yml shape.
type Config struct {
	Name    string  `yaml:"name"`
	Version string  `yaml:"version"`
	Server  Server  `yaml:"server"`
	Auth    Auth    `yaml:"auth"`
	Logging Logging `yaml:"logging"`
}

// Server holds the TCP listener settings.
type Server struct {
	Port string `yaml:"port"`
}

// Auth holds the §6 auth-gate configuration: whether CONNECTs without
// credentials are accepted, and where the users table lives.
type Auth struct {
	AllowAnonymous bool   `yaml:"allow_anonymous"`
	DBPath         string `yaml:"db_path"`
}

// Logging controls the internal/logger.Config this process builds.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses path into a Config.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = "1883"
	}
	if cfg.Auth.DBPath == "" {
		cfg.Auth.DBPath = "./store/store.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	return &cfg, nil
}
