package engine

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// AdapterInfo describes a registered engine for discovery endpoints.
type AdapterInfo struct {
	Kind        string `json:"kind"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

// AdapterFactory constructs a connected adapter from resolved connection
// parameters (environment config merged with vaulted credentials).
type AdapterFactory func(ctx context.Context, config map[string]any, logger *zap.Logger) (Adapter, error)

// Registration binds an engine kind to its factory.
type Registration struct {
	Info    AdapterInfo
	Factory AdapterFactory
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Registration)
)

// Register adds an engine adapter to the registry. Called from each engine
// subpackage's init; later registrations for the same kind overwrite.
func Register(reg Registration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Kind] = reg
}

// GetFactory returns the factory for kind, or nil if not registered.
func GetFactory(kind string) AdapterFactory {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if reg, ok := registry[kind]; ok {
		return reg.Factory
	}
	return nil
}

// Registered reports whether kind has a compiled-in adapter.
func Registered(kind string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[kind]
	return ok
}

// RegisteredAdapters returns info for all compiled-in engines.
func RegisteredAdapters() []AdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()
	infos := make([]AdapterInfo, 0, len(registry))
	for _, reg := range registry {
		infos = append(infos, reg.Info)
	}
	return infos
}
