package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/apperrors"
)

// Factory creates adapters from the registry.
type Factory interface {
	// New creates a connected adapter for the given engine kind.
	New(ctx context.Context, kind string, config map[string]any) (Adapter, error)

	// ListKinds returns info for all registered engine kinds.
	ListKinds() []AdapterInfo
}

type registryFactory struct {
	logger *zap.Logger
}

// NewFactory returns a Factory backed by the package registry.
func NewFactory(logger *zap.Logger) Factory {
	return &registryFactory{logger: logger}
}

func (f *registryFactory) New(ctx context.Context, kind string, config map[string]any) (Adapter, error) {
	factory := GetFactory(kind)
	if factory == nil {
		return nil, fmt.Errorf("%w: %s (not compiled in)", apperrors.ErrUnsupportedEngine, kind)
	}
	return factory(ctx, config, f.logger)
}

func (f *registryFactory) ListKinds() []AdapterInfo {
	return RegisteredAdapters()
}

// Ensure registryFactory implements Factory at compile time.
var _ Factory = (*registryFactory)(nil)
