package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
	"github.com/schemalens/schemalens/pkg/config"
)

// maxValuesPerColumn caps how many distinct sampled values are kept per
// column before they reach the reasoning service.
const maxValuesPerColumn = 20

// TableSample is the sampling outcome for one table. When sampling
// degrades, Rows and ColumnValues are empty and Note explains why; a
// degraded sample never fails an analysis run.
type TableSample struct {
	RowCount     int64
	Rows         []engine.Row
	ColumnValues map[string][]string
	Degraded     bool
	Note         string
}

// Sampler draws bounded random samples from source tables.
type Sampler struct {
	limit  int
	logger *zap.Logger
}

// NewSampler creates a sampler with the configured per-table row limit.
func NewSampler(cfg config.AnalysisConfig, logger *zap.Logger) *Sampler {
	return &Sampler{
		limit:  cfg.SampleLimit,
		logger: logger.Named("sampler"),
	}
}

// SampleForAnalysis counts and samples one table. Counting or sampling
// failures degrade the sample rather than erroring; the analysis pipeline
// proceeds on schema metadata alone.
func (s *Sampler) SampleForAnalysis(ctx context.Context, adapter engine.Adapter, schemaName, tableName string) *TableSample {
	count, err := adapter.CountRows(ctx, schemaName, tableName)
	if err != nil {
		s.logger.Warn("Row count failed, proceeding without sample data",
			zap.String("table", tableName), zap.Error(err))
		return &TableSample{Degraded: true, Note: "no sample data available"}
	}

	sample := &TableSample{RowCount: count}
	if count == 0 {
		sample.Note = "table is empty"
		return sample
	}

	rows, err := adapter.SampleRows(ctx, schemaName, tableName, s.limit, count)
	if err != nil {
		s.logger.Warn("Sampling failed, proceeding without sample data",
			zap.String("table", tableName), zap.Error(err))
		sample.Degraded = true
		sample.Note = "no sample data available"
		return sample
	}

	sample.Rows = rows
	sample.ColumnValues = collectColumnValues(rows)
	return sample
}

// collectColumnValues pivots sampled rows into per-column value lists,
// dropping duplicates and capping each column at maxValuesPerColumn.
func collectColumnValues(rows []engine.Row) map[string][]string {
	values := make(map[string][]string)
	seen := make(map[string]map[string]bool)

	for _, row := range rows {
		for column, value := range row {
			if seen[column] == nil {
				seen[column] = make(map[string]bool)
			}
			if seen[column][value] || len(values[column]) >= maxValuesPerColumn {
				continue
			}
			seen[column][value] = true
			values[column] = append(values[column], value)
		}
	}
	return values
}
