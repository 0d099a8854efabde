package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the fully loaded, merged, and validated runtime configuration.
type Config struct {
	GatewayYAMLConfig

	// ConfigDir is the directory gateway.yaml was loaded from; relative paths
	// elsewhere in the config (prompts directory, projection root) resolve
	// against it unless already absolute.
	ConfigDir string
}

// Load reads gateway.yaml from configDir, expands environment variables,
// merges it over the built-in defaults, validates the result, and returns a
// ready-to-use Config.
func Load(configDir string) (*Config, error) {
	path := filepath.Join(configDir, "gateway.yaml")

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("gateway.yaml not found, falling back to built-in defaults", "path", path)
			merged, mergeErr := mergeWithDefaults(nil)
			if mergeErr != nil {
				return nil, mergeErr
			}
			if valErr := ValidateAll(merged); valErr != nil {
				return nil, valErr
			}
			return &Config{GatewayYAMLConfig: *merged, ConfigDir: configDir}, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrConfigNotFound, err)
	}

	expanded := ExpandEnv(raw)

	var override GatewayYAMLConfig
	if err := yaml.Unmarshal(expanded, &override); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidYAML, err)
	}

	merged, err := mergeWithDefaults(&override)
	if err != nil {
		return nil, fmt.Errorf("merging configuration: %w", err)
	}

	if err := ValidateAll(merged); err != nil {
		return nil, err
	}

	slog.Info("configuration loaded", "path", path, "specialists", len(merged.Specialists))
	return &Config{GatewayYAMLConfig: *merged, ConfigDir: configDir}, nil
}

// ResolvePath resolves a configuration-relative path (e.g. prompts directory,
// projection root) against ConfigDir when it is not already absolute.
func (c *Config) ResolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ConfigDir, p)
}
