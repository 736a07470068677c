package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"ldpfile/internal/core/types"
	"ldpfile/internal/file"
)

// Factory builds a provider from its configuration.
type Factory func(types.ProviderConfig, Options) (Provider, error)

// Options carries the shared dependencies handed to every factory.
type Options struct {
	Logger     *slog.Logger
	HTTPClient *http.Client // nil selects the transport default
	UserAgent  string
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Provider factory functions for creating new provider instances
var providerFactories = make(map[string]Factory)

// Global registry of configured provider instances
var (
	providerRegistry = make(map[string]Provider)
	registryMutex    sync.RWMutex
)

// Provider is a configured repository that resolves paths to resources.
type Provider interface {
	GetName() string
	GetID() string
	// Open returns the resource at path, which is either absolute or
	// relative to the provider's root. Nothing is fetched until the
	// source is used.
	Open(ctx context.Context, path string) (file.Source, error)
}

// RegisterProviderFactory registers a provider factory function by type
func RegisterProviderFactory(providerType string, factory Factory) {
	providerFactories[providerType] = factory
}

// InitializeProviders creates every configured provider and adds it to the registry
func InitializeProviders(providers map[string]types.ProviderConfig, opts Options) error {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	for providerID, cfg := range providers {
		if cfg.ID == "" {
			cfg.ID = providerID
		}

		provider, err := NewProvider(cfg, opts)
		if err != nil {
			return fmt.Errorf("failed to create provider %s: %w", providerID, err)
		}

		providerRegistry[providerID] = provider
	}

	return nil
}

// GetProvider retrieves a provider by ID from the registry
func GetProvider(providerID string) (Provider, error) {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	provider, ok := providerRegistry[providerID]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", providerID)
	}

	return provider, nil
}

// ListProviders returns all registered provider IDs in sorted order
func ListProviders() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	ids := make([]string, 0, len(providerRegistry))
	for id := range providerRegistry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ResetProviders empties the registry.
func ResetProviders() {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	providerRegistry = make(map[string]Provider)
}

// NewProvider creates a provider without registering it
func NewProvider(cfg types.ProviderConfig, opts Options) (Provider, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("provider type is required")
	}

	factory, ok := providerFactories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
	return factory(cfg, opts)
}
