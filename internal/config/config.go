// Package config loads the weave CLI's on-disk configuration: logging
// verbosity, the default site identity, and where replica state is
// persisted. It follows the same decode-then-defer-validation shape the
// rest of the pack uses for yaml-backed config.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the weave CLI's top-level configuration file.
type Config struct {
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
	// StatePath is where a replica's serialized weave is read from and
	// written back to between invocations.
	StatePath string `yaml:"state_path"`
	// Owner is the site UUID recorded for this replica. Load and Save carry
	// it through as-is; nothing fills it in when it is empty, and the CLI
	// commands do not read it.
	Owner string `yaml:"owner,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		LogLevel:  "info",
		StatePath: "weave.state",
	}
}

// Load reads and parses the config file at path. A missing file is not an
// error: Load returns Default() instead, since a first run has nothing to
// load yet.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as yaml, creating or truncating the file.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
