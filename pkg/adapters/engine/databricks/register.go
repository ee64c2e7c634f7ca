//go:build databricks || all_adapters

package databricks

import (
	"context"

	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
)

func init() {
	engine.Register(engine.Registration{
		Info: engine.AdapterInfo{
			Kind:        engineKind,
			DisplayName: "Databricks",
			Description: "Connect to a Databricks SQL warehouse with a personal access token",
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
