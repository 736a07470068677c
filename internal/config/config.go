package config

import (
	"fmt"
	"os"
	"path/filepath"

	"ldpfile/internal/core/types"

	"github.com/goccy/go-yaml"
)

// LoadConfig loads configuration from a YAML file and applies defaults
func LoadConfig(configFile string) (*types.Config, error) {
	config := &types.Config{
		Providers: make(map[string]types.ProviderConfig),
		Transfer:  types.DefaultTransferConfig(),
	}

	// Load from file if it exists
	if configFile != "" && fileExists(configFile) {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	}

	defaults := types.DefaultProviderConfig()
	for id, cfg := range config.Providers {
		config.Providers[id] = mergeProviderConfig(expandEnvVars(cfg), defaults)
	}

	if err := ValidateProviders(config.Providers); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig writes cfg to configFile as YAML.
func SaveConfig(configFile string, cfg *types.Config) error {
	if configFile == "" {
		return fmt.Errorf("config file path is empty")
	}

	data, err := yaml.MarshalWithOptions(cfg, yaml.Indent(2))
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", configFile, err)
	}
	return nil
}

// mergeProviderConfig merges loaded config with defaults, with loaded values taking precedence
func mergeProviderConfig(loaded, defaults types.ProviderConfig) types.ProviderConfig {
	result := loaded
	result.Type = coalesce(loaded.Type, defaults.Type)
	result.Timeout = coalesce(loaded.Timeout, defaults.Timeout)
	result.MetadataSuffix = coalesce(loaded.MetadataSuffix, defaults.MetadataSuffix)
	if result.Headers == nil {
		result.Headers = make(map[string]string)
	}
	return result
}

func coalesce[T comparable](loaded, defaultVal T) T {
	var zero T
	if loaded != zero {
		return loaded
	}
	return defaultVal
}

// expandEnvVars expands ${VAR} and $VAR references in credentials and headers
func expandEnvVars(cfg types.ProviderConfig) types.ProviderConfig {
	cfg.BaseURL = os.ExpandEnv(cfg.BaseURL)
	cfg.Token = os.ExpandEnv(cfg.Token)
	cfg.Username = os.ExpandEnv(cfg.Username)
	cfg.Password = os.ExpandEnv(cfg.Password)
	cfg.Region = os.ExpandEnv(cfg.Region)
	cfg.Profile = os.ExpandEnv(cfg.Profile)
	cfg.Endpoint = os.ExpandEnv(cfg.Endpoint)

	if cfg.Headers != nil {
		expandedHeaders := make(map[string]string, len(cfg.Headers))
		for k, v := range cfg.Headers {
			expandedHeaders[k] = os.ExpandEnv(v)
		}
		cfg.Headers = expandedHeaders
	}

	return cfg
}

// fileExists checks if a file exists
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) || err != nil {
		return false
	}
	return !info.IsDir()
}

// ValidateProviders validates provider configurations and fills in IDs
func ValidateProviders(providers map[string]types.ProviderConfig) error {
	requiredFields := map[string][]string{
		"http":   {"base_url"},
		"fedora": {"base_url"},
		"s3":     {"bucket"},
	}

	for id, cfg := range providers {
		fields, ok := requiredFields[cfg.Type]
		if !ok {
			return fmt.Errorf("unsupported provider type '%s' for provider '%s'", cfg.Type, id)
		}

		for _, field := range fields {
			var value string
			switch field {
			case "base_url":
				value = cfg.BaseURL
			case "bucket":
				value = cfg.Bucket
			}
			if value == "" {
				return fmt.Errorf("provider '%s' missing required field: %s", id, field)
			}
		}

		if cfg.ID != "" && cfg.ID != id {
			return fmt.Errorf("provider ID '%s' doesn't match key '%s'", cfg.ID, id)
		}
		if cfg.ID == "" {
			cfg.ID = id
		}

		providers[id] = cfg
	}

	return nil
}

// ResolveConfigPath resolves a config file path, checking common locations
func ResolveConfigPath(configFile string) string {
	if configFile != "" {
		if filepath.IsAbs(configFile) || fileExists(configFile) {
			return configFile
		}
	}

	commonPaths := []string{
		"ldpfile.yaml",
		"ldpfile.yml",
	}
	if home, err := os.UserConfigDir(); err == nil {
		commonPaths = append(commonPaths, filepath.Join(home, "ldpfile", "config.yaml"))
	}
	commonPaths = append(commonPaths, "/etc/ldpfile/config.yaml")

	for _, path := range commonPaths {
		if fileExists(path) {
			return path
		}
	}

	return configFile // Return original even if it doesn't exist
}
