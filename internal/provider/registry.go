package provider

import (
	"context"
	"fmt"
	"sync"
)

// Factory creates a configured provider instance.
type Factory func(ctx context.Context) (LLMProvider, error)

var (
	regMu     sync.RWMutex
	factories = make(map[string]Factory)
)

// Register registers a provider factory by name. Provider subpackages call
// this from init; importing a subpackage for side effects enables it.
func Register(name string, factory Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[name] = factory
}

// Get builds a provider instance by name.
func Get(ctx context.Context, name string) (LLMProvider, error) {
	regMu.RLock()
	factory, ok := factories[name]
	regMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("provider not registered: %s", name)
	}
	return factory(ctx)
}

// Names returns the registered provider names.
func Names() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}
