// Package llm resolves the configured model backend. Provider packages
// register themselves from init; binaries blank-import the ones they ship.
package llm

import (
	"fmt"
	"sort"
	"sync"

	"contractinvoice/internal/config"
	"contractinvoice/internal/port"
)

// ProviderFactory is a function that creates a ModelBackend from the LLM config.
type ProviderFactory func(cfg *config.LLMConfig) (port.ModelBackend, error)

var (
	mu        sync.RWMutex
	providers = map[string]ProviderFactory{}
)

// RegisterProvider registers a backend factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	mu.Lock()
	defer mu.Unlock()
	providers[name] = factory
}

// NewBackend creates a ModelBackend from the config using the registered factory.
func NewBackend(cfg *config.LLMConfig) (port.ModelBackend, error) {
	mu.RLock()
	factory, ok := providers[cfg.Provider]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown llm provider: %s (registered: %v)", cfg.Provider, Providers())
	}
	return factory(cfg)
}

// Providers lists the registered provider names, sorted.
func Providers() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
