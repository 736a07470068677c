package types

import (
	"time"
)

// Config is the top-level configuration structure
type Config struct {
	Debug     bool                      `yaml:"debug"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Transfer  TransferConfig            `yaml:"transfer"`
}

// ProviderConfig holds connection configuration for one repository
type ProviderConfig struct {
	ID   string `yaml:"id" json:"id"`     // Unique identifier for this provider instance
	Type string `yaml:"type" json:"type"` // Provider type (http, fedora, s3)
	Name string `yaml:"name" json:"name"` // Human-readable name

	// LDP server settings
	BaseURL  string            `yaml:"base_url" json:"base_url"` // Repository root, e.g. http://localhost:8080/rest
	Token    string            `yaml:"token" json:"token"`       // Bearer token
	Username string            `yaml:"username" json:"username"` // Basic auth user
	Password string            `yaml:"password" json:"password"` // Basic auth password
	Headers  map[string]string `yaml:"headers" json:"headers"`   // Default headers for HTTP requests
	Timeout  string            `yaml:"timeout" json:"timeout"`   // Per-request timeout

	// S3 mirror settings
	Bucket         string `yaml:"bucket" json:"bucket"`
	Prefix         string `yaml:"prefix" json:"prefix"`
	Region         string `yaml:"region" json:"region"`
	Profile        string `yaml:"profile" json:"profile"`
	Endpoint       string `yaml:"endpoint" json:"endpoint"`               // Custom endpoint (MinIO, localstack)
	MetadataSuffix string `yaml:"metadata_suffix" json:"metadata_suffix"` // Sidecar key suffix for the metadata graph
}

// TransferConfig holds settings for content downloads
type TransferConfig struct {
	RateLimit Bytes `yaml:"rate_limit" json:"rate_limit"` // Bytes per second, 0 = unlimited
	RateBurst Bytes `yaml:"rate_burst" json:"rate_burst"`
	Progress  bool  `yaml:"progress" json:"progress"` // Show progress bars
}

// ParseDuration parses a duration string with fallback to default
func ParseDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	if durationStr == "" {
		return defaultDuration
	}
	if dur, err := time.ParseDuration(durationStr); err == nil {
		return dur
	}
	return defaultDuration
}

// DefaultMetadataSuffix is the path Fedora serves a binary's description under.
const DefaultMetadataSuffix = "/fcr:metadata"

// DefaultProviderConfig returns default provider configuration
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Type:           "http",
		Timeout:        "30s",
		Headers:        make(map[string]string),
		MetadataSuffix: DefaultMetadataSuffix,
	}
}

// DefaultTransferConfig returns default transfer configuration
func DefaultTransferConfig() TransferConfig {
	return TransferConfig{
		RateLimit: 0, // No limit
		RateBurst: Bytes(DefaultRateBurst),
		Progress:  true,
	}
}
