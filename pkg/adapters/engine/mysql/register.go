//go:build mysql || all_adapters

package mysql

import (
	"context"

	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
)

func init() {
	engine.Register(engine.Registration{
		Info: engine.AdapterInfo{
			Kind:        engineKind,
			DisplayName: "MySQL",
			Description: "Connect to MySQL 8+, MariaDB, Aurora MySQL",
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
