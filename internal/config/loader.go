package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	// ConfigDir is the default config directory name.
	ConfigDir = ".vitalwatch"
	// ConfigFile is the default config file name.
	ConfigFile = "config.json"
)

// ConfigPath returns the path to the config file. VITALWATCH_CONFIG overrides
// the default ~/.vitalwatch/config.json.
func ConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("VITALWATCH_CONFIG")); explicit != "" {
		return ExpandHome(explicit)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

// ExpandHome resolves a leading ~ in a path.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], string(filepath.Separator))), nil
}

// Load reads the config file (if present), then applies environment
// overrides. Precedence: env > file > defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	envconfig.Process("VITALWATCH_SERVER", &cfg.Server)
	envconfig.Process("VITALWATCH_STORE", &cfg.Store)
	envconfig.Process("VITALWATCH_STREAM", &cfg.Stream)
	envconfig.Process("VITALWATCH_GEMINI", &cfg.Providers.Gemini)
	envconfig.Process("VITALWATCH_SLACK", &cfg.Notify.Slack)
	envconfig.Process("VITALWATCH_SCHEDULER", &cfg.Scheduler)

	return cfg, nil
}

// Save writes the config to the default path, creating the directory.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
