package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, an optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if AMORA_CONFIG is set
//  3. env (prefix AMORA_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("AMORA_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: AMORA_PORT, AMORA_GEMINI_API_KEY, ...
	// Map env keys like AMORA_GEMINI_API_KEY -> gemini_api_key (flat keys).
	envProvider := env.Provider("AMORA_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "amora_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	// Basic validation
	if cfg.Port == "" {
		return nil, errors.New("port must not be empty")
	}
	if cfg.DiscoverDefaultLimit <= 0 || cfg.DiscoverMaxLimit < cfg.DiscoverDefaultLimit {
		return nil, errors.New("invalid discover limit configuration")
	}
	return &cfg, nil
}
