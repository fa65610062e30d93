package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestCreateDefault(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, ".trae-agent", "config.yaml")

	if err := createDefault(configPath); err != nil {
		t.Fatalf("createDefault() failed: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("failed to parse config: %v", err)
	}

	if cfg.Provider != "openai" {
		t.Errorf("Provider = %q, want %q", cfg.Provider, "openai")
	}
	if cfg.MaxSteps != 200 {
		t.Errorf("MaxSteps = %d, want 200", cfg.MaxSteps)
	}
}

func TestCreateDefault_DirectoryCreation(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "deep", "nested", "path", "config.yaml")

	if err := createDefault(configPath); err != nil {
		t.Fatalf("createDefault() failed with nested path: %v", err)
	}

	if _, err := os.Stat(filepath.Dir(configPath)); os.IsNotExist(err) {
		t.Fatal("nested directories were not created")
	}
}

func TestResolveAPIKey(t *testing.T) {
	t.Run("cli flag wins", func(t *testing.T) {
		Global = Config{APIKey: "configured-key"}
		t.Setenv("OPENAI_API_KEY", "env-key")
		if got := ResolveAPIKey("cli-key", "OPENAI_API_KEY"); got != "cli-key" {
			t.Errorf("ResolveAPIKey = %q, want cli-key", got)
		}
	})

	t.Run("configured key wins over env", func(t *testing.T) {
		Global = Config{APIKey: "configured-key"}
		t.Setenv("OPENAI_API_KEY", "env-key")
		if got := ResolveAPIKey("", "OPENAI_API_KEY"); got != "configured-key" {
			t.Errorf("ResolveAPIKey = %q, want configured-key", got)
		}
	})

	t.Run("falls back to env", func(t *testing.T) {
		Global = Config{}
		t.Setenv("OPENAI_API_KEY", "env-key")
		if got := ResolveAPIKey("", "OPENAI_API_KEY"); got != "env-key" {
			t.Errorf("ResolveAPIKey = %q, want env-key", got)
		}
	})
}
