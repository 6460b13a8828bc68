package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/headlamp-app/headlamp/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.App.Name != "headlamp-api" {
		t.Errorf("app name = %q", cfg.App.Name)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Storage.Type != "sqlite" || cfg.Storage.SQLite.Path != "./data/headlamp.db" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.OpenAI.Model != "gpt-4.1" {
		t.Errorf("model = %q", cfg.OpenAI.Model)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("api key = %q", cfg.OpenAI.APIKey)
	}
}

func TestLoadMissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("HEADLAMP_OPENAI_API_KEY", "")

	_, err := Load("")
	var ce *domain.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("Load() error = %v, want *ConfigError", err)
	}
	if ce.Field != "openai.api_key" {
		t.Errorf("field = %q", ce.Field)
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("HEADLAMP_OPENAI_API_KEY", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
app:
  name: headlamp-test
server:
  port: 9090
storage:
  type: memory
openai:
  api_key: sk-from-file
  model: gpt-4o-mini
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.App.Name != "headlamp-test" || cfg.Server.Port != 9090 {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("storage type = %q", cfg.Storage.Type)
	}
	if cfg.OpenAI.APIKey != "sk-from-file" || cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("openai = %+v", cfg.OpenAI)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("HEADLAMP_SERVER_PORT", "3000")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, want env override 3000", cfg.Server.Port)
	}
}

func TestLoadPrefixedAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("HEADLAMP_OPENAI_API_KEY", "sk-prefixed")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-prefixed" {
		t.Errorf("api key = %q", cfg.OpenAI.APIKey)
	}
}
