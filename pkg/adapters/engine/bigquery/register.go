//go:build bigquery || all_adapters

package bigquery

import (
	"context"

	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
)

func init() {
	engine.Register(engine.Registration{
		Info: engine.AdapterInfo{
			Kind:        engineKind,
			DisplayName: "BigQuery",
			Description: "Connect to Google BigQuery via a service account key",
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
