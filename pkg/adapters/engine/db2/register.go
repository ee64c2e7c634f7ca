//go:build db2 || all_adapters

package db2

import (
	"context"

	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
)

func init() {
	engine.Register(engine.Registration{
		Info: engine.AdapterInfo{
			Kind:        engineKind,
			DisplayName: "IBM Db2",
			Description: "Connect to Db2 LUW 11.5+",
		},
		Factory: func(ctx context.Context, config map[string]any, logger *zap.Logger) (engine.Adapter, error) {
			cfg, err := FromMap(config)
			if err != nil {
				return nil, err
			}
			return NewAdapter(ctx, cfg, logger)
		},
	})
}
