// Package config resolves steamwake settings from flags, the environment,
// an optional dotenv file and a YAML config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/steamwake/steamwake/internal/power"
)

const defaultEnvFile = ".env"

type Config struct {
	Library  string `yaml:"library"`
	Backend  string `yaml:"backend"`
	Who      string `yaml:"who"`
	LogLevel string `yaml:"log_level"`
}

// Overrides carries command line values. Empty fields are unset.
type Overrides struct {
	ConfigPath string
	EnvFile    string
	Library    string
	Backend    string
	Who        string
	LogLevel   string
}

// Load resolves configuration from flags > env > config file.
func Load(o Overrides) (*Config, error) {
	if err := loadEnvFile(o.EnvFile); err != nil {
		return nil, err
	}

	cfg := &Config{}

	// 1. Load config file as base
	cfgPath, explicit := o.ConfigPath, o.ConfigPath != ""
	if !explicit {
		cfgPath = configFilePath()
	}
	if cfgPath != "" {
		data, err := os.ReadFile(cfgPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", cfgPath, err)
			}
		case explicit || !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("reading config file %s: %w", cfgPath, err)
		}
	}

	// 2. Environment variables override config file
	if v := os.Getenv("STEAMWAKE_LIBRARY"); v != "" {
		cfg.Library = v
	}
	if v := os.Getenv("STEAMWAKE_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("STEAMWAKE_WHO"); v != "" {
		cfg.Who = v
	}
	if v := os.Getenv("STEAMWAKE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	// 3. CLI flags override everything
	if o.Library != "" {
		cfg.Library = o.Library
	}
	if o.Backend != "" {
		cfg.Backend = o.Backend
	}
	if o.Who != "" {
		cfg.Who = o.Who
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}

	if cfg.Backend == "" {
		cfg.Backend = power.BackendLogind
	}
	if cfg.Who == "" {
		cfg.Who = power.DefaultWho
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if cfg.Backend != power.BackendLogind && cfg.Backend != power.BackendSystemdInhibit {
		return nil, fmt.Errorf("unknown backend %q (want %s or %s)", cfg.Backend, power.BackendLogind, power.BackendSystemdInhibit)
	}

	if cfg.Library != "" {
		abs, err := filepath.Abs(cfg.Library)
		if err != nil {
			return nil, fmt.Errorf("invalid library path: %w", err)
		}
		cfg.Library = abs
	}

	return cfg, nil
}

// loadEnvFile fills unset environment variables from a dotenv file. The
// default file is optional; an explicitly named one must exist.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

func configFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "steamwake", "config.yaml")
}
