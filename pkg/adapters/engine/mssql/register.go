//go:build mssql || all_adapters

package mssql

import (
	"context"

	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
)

func init() {
	engine.Register(engine.Registration{
		Info: engine.AdapterInfo{
			Kind:        engineKind,
			DisplayName: "SQL Server",
			Description: "Connect to SQL Server 2017+, Azure SQL Database",
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
