// Package config loads service configuration from a yaml file and
// HEADLAMP_-prefixed environment variables, env taking precedence.
package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/headlamp-app/headlamp/internal/domain"
)

type Config struct {
	App     AppConfig     `koanf:"app"`
	Server  ServerConfig  `koanf:"server"`
	Storage StorageConfig `koanf:"storage"`
	OpenAI  OpenAIConfig  `koanf:"openai"`
}

type AppConfig struct {
	Name string `koanf:"name"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // sqlite, memory
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type OpenAIConfig struct {
	APIKey string `koanf:"api_key"`
	Model  string `koanf:"model"`
}

// Load reads configuration from the optional config file path and the
// environment. A missing OpenAI API key is a construction-time configuration
// error; the service refuses to start without one.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	// Environment overrides: HEADLAMP_OPENAI_API_KEY -> openai.api_key etc.
	if err := k.Load(env.Provider("HEADLAMP_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "HEADLAMP_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// OPENAI_API_KEY is honored unprefixed for compatibility with the usual
	// environment convention.
	if !k.Exists("openai.api.key") && os.Getenv("OPENAI_API_KEY") != "" {
		k.Set("openai.api.key", os.Getenv("OPENAI_API_KEY"))
	}

	setDefaults(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// The env provider splits every underscore, so api_key arrives as
	// openai.api.key rather than openai.api_key.
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = k.String("openai.api.key")
	}

	if cfg.OpenAI.APIKey == "" {
		return nil, domain.NewConfigError("openai.api_key", "OpenAI API key not configured; set OPENAI_API_KEY")
	}

	return &cfg, nil
}

func setDefaults(k *koanf.Koanf) {
	if !k.Exists("app.name") {
		k.Set("app.name", "headlamp-api")
	}
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("storage.type") {
		k.Set("storage.type", "sqlite")
	}
	if !k.Exists("storage.sqlite.path") {
		k.Set("storage.sqlite.path", "./data/headlamp.db")
	}
	if !k.Exists("openai.model") {
		k.Set("openai.model", "gpt-4.1")
	}
}
