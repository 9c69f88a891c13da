// Package volumes implements the Volume Manager: physical and logical
// volume discovery across a set of registered disks, and the process-wide
// registry of Logical Volume Factories that claim physical volumes into
// composite logical ones.
package volumes

import (
	"sync"

	"github.com/TwanVanDongen/DiscUtils/internal/diskvol"
)

// FactoryRegistry holds the process-wide set of registered Logical Volume
// Factories, keyed by Name(). Re-registering a name already present is a
// no-op; Register uses double-checked locking (a read-locked check, then a
// re-check under the write lock).
type FactoryRegistry struct {
	mu          sync.RWMutex
	factories   map[string]diskvol.LogicalVolumeFactory
	initialized bool
}

// NewFactoryRegistry returns an empty registry.
func NewFactoryRegistry() *FactoryRegistry {
	return &FactoryRegistry{factories: make(map[string]diskvol.LogicalVolumeFactory)}
}

// Register adds factory to the registry unless a factory with the same
// Name() is already registered.
func (r *FactoryRegistry) Register(factory diskvol.LogicalVolumeFactory) {
	r.mu.RLock()
	_, exists := r.factories[factory.Name()]
	r.mu.RUnlock()
	if exists {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[factory.Name()]; exists {
		return
	}
	r.factories[factory.Name()] = factory
	r.initialized = true
}

// Snapshot returns an immutable copy of the currently registered factories,
// safe to iterate without holding the registry lock.
func (r *FactoryRegistry) Snapshot() []diskvol.LogicalVolumeFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]diskvol.LogicalVolumeFactory, 0, len(r.factories))
	for _, f := range r.factories {
		out = append(out, f)
	}
	return out
}

// IsInitialized reports whether at least one factory has ever been
// registered.
func (r *FactoryRegistry) IsInitialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialized
}

// defaultRegistry is the package-wide registry used by every Manager
// constructed without WithRegistry.
var defaultRegistry = NewFactoryRegistry()

// DefaultRegistry returns the process-wide factory registry.
func DefaultRegistry() *FactoryRegistry { return defaultRegistry }
