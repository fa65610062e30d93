// Package config loads the agent runtime's on-disk configuration: the
// default model, max-steps, and provider API-key precedence documented
// in spec §6. It follows the teacher's config-loader idiom (singleton,
// sync.Once, default-file bootstrap on first run).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration schema, stored as YAML at
// ~/.trae-agent/config.yaml.
type Config struct {
	// Provider is the default LLM provider name ("openai").
	Provider string `yaml:"provider"`

	// Model is the default model identifier.
	Model string `yaml:"model"`

	// APIKey, when set, takes precedence over the provider's
	// environment variable. Resolution order is CLI flag > this field
	// > <PROVIDER>_API_KEY environment variable.
	APIKey string `yaml:"api_key,omitempty"`

	// MaxSteps is the default per-task step budget.
	MaxSteps int `yaml:"max_steps"`

	// TrajectoryDir is stored in the config file but is not read by the
	// CLI: a trajectory is recorded only when --trajectory-file names an
	// explicit path.
	TrajectoryDir string `yaml:"trajectory_dir"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() Config {
	return Config{
		Provider:      "openai",
		Model:         "gpt-4o-mini",
		MaxSteps:      200,
		TrajectoryDir: "trajectories",
	}
}

var (
	// Global is the process-wide configuration singleton, populated by Load.
	Global  Config
	once    sync.Once
	loadErr error
)

// Load populates Global from ~/.trae-agent/config.yaml, creating it
// with defaults on first run. Safe to call repeatedly; only the first
// call does any I/O.
func Load() error {
	once.Do(func() {
		loadErr = loadInternal()
	})
	return loadErr
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".trae-agent", "config.yaml"), nil
}

func loadInternal() error {
	path, err := DefaultPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := createDefault(path); err != nil {
			return err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	Global = DefaultConfig()
	if err := yaml.Unmarshal(data, &Global); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func createDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ResolveAPIKey implements the CLI > configured > environment
// precedence spec §6 documents. providerEnvVar is e.g. "OPENAI_API_KEY".
func ResolveAPIKey(cliFlag, providerEnvVar string) string {
	if cliFlag != "" {
		return cliFlag
	}
	if Global.APIKey != "" {
		return Global.APIKey
	}
	return os.Getenv(providerEnvVar)
}
