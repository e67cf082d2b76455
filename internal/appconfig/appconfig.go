// Package appconfig loads the defaults the CLI falls back to when a flag
// is not given on the command line: an optional YAML file whose path the
// caller supplies, merged over built-in defaults.
package appconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sshtest/server/internal/util"
)

// Config holds CLI defaults for the serve and demo subcommands.
type Config struct {
	BindAddr        string `yaml:"bind_addr"`
	Port            int    `yaml:"port"`
	Login           string `yaml:"login"`
	Password        string `yaml:"password"`
	EventLogPath    string `yaml:"event_log_path"`
	RefreshSeconds  int    `yaml:"refresh_seconds"`
}

// Default returns the built-in fallback configuration used when no config
// file is present.
func Default() Config {
	return Config{
		BindAddr:       "127.0.0.1",
		Port:           0,
		Login:          "user",
		Password:       "pass123",
		RefreshSeconds: util.DefaultRefreshSeconds,
	}
}

// Load reads path and merges it over Default(). A missing file is not an
// error: Default() is returned unchanged so a first run works with no
// setup.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %q: %w", path, err)
	}
	cfg.RefreshSeconds = clampRefresh(cfg.RefreshSeconds)
	return cfg, nil
}

func clampRefresh(seconds int) int {
	if seconds <= 0 {
		return util.DefaultRefreshSeconds
	}
	return seconds
}
