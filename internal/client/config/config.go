// Package config loads the client settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the client settings.
type Config struct {
	BaseURL        string `yaml:"base_url"`
	StateFile      string `yaml:"state_file"`
	CAFile         string `yaml:"ca_file"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// Default returns the settings used when no file exists.
func Default() Config {
	state := "unidocs-session.db"
	if dir, err := os.UserConfigDir(); err == nil {
		state = filepath.Join(dir, "unidocs", "session.db")
	}
	return Config{
		BaseURL:        "http://localhost:8080",
		StateFile:      state,
		MaxUploadBytes: 16 << 20,
	}
}

// DefaultPath is $XDG_CONFIG_HOME/unidocs/client.yaml or its platform
// equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "client.yaml"
	}
	return filepath.Join(dir, "unidocs", "client.yaml")
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read client config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse client config %s: %w", path, err)
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = Default().MaxUploadBytes
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}
