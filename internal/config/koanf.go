package config

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where a config file is searched for, in
// priority order. The first one found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/dia/config.yaml",
	"/etc/dia/config.yml",
}

// ConfigPathEnvVar overrides the config file search with an explicit path.
const ConfigPathEnvVar = "DIA_CONFIG_PATH"

// Load builds the configuration with three layered sources, highest
// priority last:
//  1. Default() — built-in sensible defaults
//  2. an optional YAML config file (the detector table normally lives here)
//  3. environment variables, prefixed DIA_ and "__"-delimited for nesting
//     (DIA_SERVER__PORT -> server.port, DIA_TIMING__PV -> timing.pv)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.ProviderWithValue("DIA_", ".", envTransform)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransform maps DIA_SERVER__PORT -> server.port, using "__" as the
// nesting delimiter since detector names (the map keys under "detectors")
// may themselves contain underscores.
func envTransform(key, value string) (string, any) {
	trimmed := key[len("DIA_"):]
	path := koanfPath(trimmed)
	return path, value
}

func koanfPath(envKey string) string {
	out := make([]byte, 0, len(envKey))
	for i := 0; i < len(envKey); i++ {
		c := envKey[i]
		switch {
		case c == '_' && i+1 < len(envKey) && envKey[i+1] == '_':
			out = append(out, '.')
			i++
		case c >= 'A' && c <= 'Z':
			out = append(out, c-'A'+'a')
		default:
			out = append(out, c)
		}
	}
	return string(out)
}
