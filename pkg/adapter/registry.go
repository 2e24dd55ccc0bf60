package adapter

import (
	"sort"
	"sync"

	"github.com/civicdata/govtable/pkg/config"
	"github.com/civicdata/govtable/pkg/errors"
)

// Factory creates a Table instance from validated configuration.
type Factory func(cfg *config.AdapterConfig) (Table, error)

// registry is the global table factory registry. Table packages register
// themselves in init, mirroring database/sql driver registration.
var registry = struct {
	mu        sync.RWMutex
	factories map[string]Factory
}{
	factories: make(map[string]Factory),
}

// Register makes a table factory available under the given name. It panics on
// duplicate registration, which indicates a programming error at init time.
func Register(name string, factory Factory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, exists := registry.factories[name]; exists {
		panic("adapter: duplicate table registration for " + name)
	}
	registry.factories[name] = factory
}

// Open constructs a registered table by name. Configuration is validated
// before the factory runs.
func Open(name string, cfg *config.AdapterConfig) (Table, error) {
	registry.mu.RLock()
	factory, ok := registry.factories[name]
	registry.mu.RUnlock()

	if !ok {
		return nil, errors.Newf(errors.ErrorTypeConfig, "no table registered as %q", name)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return factory(cfg)
}

// List returns the registered table names in sorted order.
func List() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.factories))
	for name := range registry.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
