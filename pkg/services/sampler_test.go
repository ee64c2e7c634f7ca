package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
	"github.com/schemalens/schemalens/pkg/config"
)

func newTestSampler(limit int) *Sampler {
	return NewSampler(config.AnalysisConfig{SampleLimit: limit}, zap.NewNop())
}

func TestSampler_HappyPath(t *testing.T) {
	adapter := &fakeAdapter{
		rowCount: 3,
		rows: []engine.Row{
			{"id": "1", "status": "active"},
			{"id": "2", "status": "active"},
			{"id": "3", "status": "churned"},
		},
	}

	sample := newTestSampler(50).SampleForAnalysis(context.Background(), adapter, "public", "accounts")

	require.False(t, sample.Degraded)
	assert.Equal(t, int64(3), sample.RowCount)
	assert.Len(t, sample.Rows, 3)
	assert.ElementsMatch(t, []string{"1", "2", "3"}, sample.ColumnValues["id"])
	// Duplicates collapse.
	assert.ElementsMatch(t, []string{"active", "churned"}, sample.ColumnValues["status"])
	assert.Equal(t, []int{50}, adapter.sampleCalls)
}

func TestSampler_ValueCap(t *testing.T) {
	var rows []engine.Row
	for i := 0; i < 40; i++ {
		rows = append(rows, engine.Row{"email": fmt.Sprintf("user%d@example.com", i)})
	}
	adapter := &fakeAdapter{rowCount: 40, rows: rows}

	sample := newTestSampler(50).SampleForAnalysis(context.Background(), adapter, "public", "users")

	assert.Len(t, sample.ColumnValues["email"], maxValuesPerColumn)
}

func TestSampler_EmptyTable(t *testing.T) {
	adapter := &fakeAdapter{rowCount: 0}

	sample := newTestSampler(50).SampleForAnalysis(context.Background(), adapter, "public", "empty")

	assert.False(t, sample.Degraded)
	assert.Equal(t, "table is empty", sample.Note)
	assert.Empty(t, adapter.sampleCalls)
}

func TestSampler_CountFailureDegrades(t *testing.T) {
	adapter := &fakeAdapter{countErr: errors.New("permission denied")}

	sample := newTestSampler(50).SampleForAnalysis(context.Background(), adapter, "public", "secret")

	assert.True(t, sample.Degraded)
	assert.Equal(t, "no sample data available", sample.Note)
	assert.Empty(t, sample.Rows)
}

func TestSampler_SampleFailureDegrades(t *testing.T) {
	adapter := &fakeAdapter{rowCount: 100, sampleErr: errors.New("query timeout")}

	sample := newTestSampler(50).SampleForAnalysis(context.Background(), adapter, "public", "orders")

	assert.True(t, sample.Degraded)
	assert.Equal(t, int64(100), sample.RowCount)
	assert.Empty(t, sample.ColumnValues)
}
