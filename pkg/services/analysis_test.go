package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
	"github.com/schemalens/schemalens/pkg/config"
	"github.com/schemalens/schemalens/pkg/llm"
	"github.com/schemalens/schemalens/pkg/models"
)

type analysisFixture struct {
	service  AnalysisService
	tables   *fakeTableRepo
	columns  *fakeColumnRepo
	reasoner *llm.MockReasoningService
	adapter  *fakeAdapter
	resolver *fakeResolver
	table    *models.Table
	cols     []*models.Column
}

func newAnalysisFixture(t *testing.T) *analysisFixture {
	t.Helper()

	tables := newFakeTableRepo()
	columns := newFakeColumnRepo()
	env := &models.Environment{ID: uuid.New(), DataSourceID: uuid.New(), Name: "prod"}
	provider := &fakeDataSourceProvider{env: env, kind: models.EnginePostgres}

	table := tables.add(&models.Table{
		EnvironmentID: env.ID,
		SchemaName:    "public",
		Name:          "users",
	})

	cols := []*models.Column{
		columns.add(&models.Column{TableID: table.ID, Name: "id", DataType: "uuid", IsPrimaryKey: true}),
		columns.add(&models.Column{TableID: table.ID, Name: "email", DataType: "text", Comment: "login email"}),
		columns.add(&models.Column{TableID: table.ID, Name: "account_id", DataType: "uuid", IsForeignKey: true, ReferencedTable: "accounts", ReferencedColumn: "id"}),
	}

	adapter := &fakeAdapter{
		rowCount: 2,
		rows: []engine.Row{
			{"id": "a1", "email": "one@example.com", "account_id": "acc1"},
			{"id": "a2", "email": "two@example.com", "account_id": "acc2"},
		},
	}
	resolver := &fakeResolver{adapter: adapter}
	reasoner := llm.NewMockReasoningService()

	logger := zap.NewNop()
	sampler := NewSampler(config.AnalysisConfig{SampleLimit: 50}, logger)
	pool := llm.NewWorkerPool(llm.WorkerPoolConfig{MaxConcurrent: 1}, logger)

	service := NewAnalysisService(tables, columns, provider, resolver, sampler, reasoner, pool, logger)

	return &analysisFixture{
		service:  service,
		tables:   tables,
		columns:  columns,
		reasoner: reasoner,
		adapter:  adapter,
		resolver: resolver,
		table:    table,
		cols:     cols,
	}
}

func TestAnalyzeTable_HappyPath(t *testing.T) {
	fx := newAnalysisFixture(t)

	got, err := fx.service.AnalyzeTable(context.Background(), fx.table.ID, "")
	require.NoError(t, err)

	assert.Equal(t, models.AnalysisCompleted, got.AnalysisStatus)
	assert.Equal(t, []models.AnalysisStatus{models.AnalysisAnalyzing, models.AnalysisCompleted}, fx.tables.statusHistory)

	require.NotNil(t, got.AnalysisResult)
	assert.Equal(t, 3, got.AnalysisResult.ColumnsAnalyzed)
	assert.Equal(t, "Table users stores business records.", got.AnalysisResult.Summary)
	assert.Equal(t, got.AnalysisResult.Summary, got.Description)

	// Findings come back in imported column order regardless of the
	// completion order of the fan-out.
	names := make([]string, len(got.AnalysisResult.ColumnFindings))
	for i, f := range got.AnalysisResult.ColumnFindings {
		names[i] = f.ColumnName
	}
	assert.Equal(t, []string{"id", "email", "account_id"}, names)

	// Every column description was persisted during the run.
	assert.Equal(t, 3, fx.columns.descriptionWrites)
	stored, err := fx.columns.GetByID(context.Background(), fx.cols[1].ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AIDescription)
	assert.Equal(t, "Column email of table users", stored.AIDescription.Purpose)

	assert.True(t, fx.adapter.closed)
	assert.Equal(t, 3, fx.reasoner.ColumnDescriptionCalls)
	assert.Equal(t, 1, fx.reasoner.AnalyzeTableCalls)
}

func TestAnalyzeTable_ConnectFailure(t *testing.T) {
	fx := newAnalysisFixture(t)
	fx.resolver.err = errors.New("connection refused")

	_, err := fx.service.AnalyzeTable(context.Background(), fx.table.ID, "")
	require.Error(t, err)

	assert.Equal(t, []models.AnalysisStatus{models.AnalysisAnalyzing, models.AnalysisFailed}, fx.tables.statusHistory)
	stored, getErr := fx.tables.GetByID(context.Background(), fx.table.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.AnalysisFailed, stored.AnalysisStatus)
	assert.Contains(t, stored.AnalysisError, "connection refused")
	assert.Nil(t, stored.AnalysisResult)
}

func TestAnalyzeTable_ColumnFailureIsolated(t *testing.T) {
	fx := newAnalysisFixture(t)
	fx.reasoner.GenerateBriefColumnDescriptionFunc = func(ctx context.Context, req llm.ColumnDescriptionRequest) (*llm.ColumnDescription, error) {
		if req.ColumnName == "account_id" {
			return nil, errors.New("rate limited")
		}
		return &llm.ColumnDescription{Description: "ok"}, nil
	}

	got, err := fx.service.AnalyzeTable(context.Background(), fx.table.ID, "")
	require.NoError(t, err)

	assert.Equal(t, models.AnalysisCompleted, got.AnalysisStatus)
	require.Len(t, got.AnalysisResult.ColumnFindings, 3)

	failed := got.AnalysisResult.ColumnFindings[2]
	assert.Equal(t, "account_id", failed.ColumnName)
	assert.True(t, failed.Failed)
	assert.Contains(t, failed.Error, "rate limited")
	assert.Equal(t, "Reference to accounts.id", failed.Description)

	// The fallback is persisted like any other description.
	assert.Equal(t, 3, fx.columns.descriptionWrites)
}

func TestAnalyzeTable_SummaryFallback(t *testing.T) {
	fx := newAnalysisFixture(t)
	fx.reasoner.AnalyzeTableFunc = func(ctx context.Context, req llm.TableAnalysisRequest) (*llm.TableAnalysis, error) {
		return nil, errors.New("model overloaded")
	}

	got, err := fx.service.AnalyzeTable(context.Background(), fx.table.ID, "")
	require.NoError(t, err)

	assert.Equal(t, models.AnalysisCompleted, got.AnalysisStatus)
	assert.Equal(t, "AI analysis completed for users", got.AnalysisResult.Summary)
	assert.Zero(t, got.AnalysisResult.Usage.TotalTokens)
}

func TestAnalyzeTable_DescriptionTruncated(t *testing.T) {
	fx := newAnalysisFixture(t)
	long := strings.Repeat("x", maxDescriptionLength+100)
	fx.reasoner.AnalyzeTableFunc = func(ctx context.Context, req llm.TableAnalysisRequest) (*llm.TableAnalysis, error) {
		return &llm.TableAnalysis{Content: long}, nil
	}

	got, err := fx.service.AnalyzeTable(context.Background(), fx.table.ID, "")
	require.NoError(t, err)

	assert.Len(t, got.Description, maxDescriptionLength)
	// The stored result keeps the full summary.
	assert.Equal(t, long, got.AnalysisResult.Summary)
}

func TestAnalyzeTable_NoColumns(t *testing.T) {
	fx := newAnalysisFixture(t)
	empty := fx.tables.add(&models.Table{
		EnvironmentID: fx.table.EnvironmentID,
		SchemaName:    "public",
		Name:          "audit_log",
	})

	_, err := fx.service.AnalyzeTable(context.Background(), empty.ID, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no imported columns")

	stored, getErr := fx.tables.GetByID(context.Background(), empty.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.AnalysisFailed, stored.AnalysisStatus)
}

func TestAnalyzeTable_DegradedSampleStillCompletes(t *testing.T) {
	fx := newAnalysisFixture(t)
	fx.adapter.countErr = errors.New("permission denied")

	got, err := fx.service.AnalyzeTable(context.Background(), fx.table.ID, "")
	require.NoError(t, err)

	assert.Equal(t, models.AnalysisCompleted, got.AnalysisStatus)
	assert.Contains(t, got.AnalysisResult.SuggestedImprovements,
		"Grant the connected user read access so rows can be sampled")
}

func TestAnalyzeTable_RerunFromCompleted(t *testing.T) {
	fx := newAnalysisFixture(t)

	first, err := fx.service.AnalyzeTable(context.Background(), fx.table.ID, "")
	require.NoError(t, err)
	second, err := fx.service.AnalyzeTable(context.Background(), fx.table.ID, "")
	require.NoError(t, err)

	// A re-run on an unchanged table restarts the whole sequence and lands
	// on the same result.
	assert.Equal(t, models.AnalysisCompleted, second.AnalysisStatus)
	assert.Equal(t, first.AnalysisResult.Summary, second.AnalysisResult.Summary)
	assert.Equal(t, first.AnalysisResult.ColumnFindings, second.AnalysisResult.ColumnFindings)
	assert.Empty(t, second.AnalysisError)

	assert.Equal(t, []models.AnalysisStatus{
		models.AnalysisAnalyzing, models.AnalysisCompleted,
		models.AnalysisAnalyzing, models.AnalysisCompleted,
	}, fx.tables.statusHistory)
	assert.Equal(t, 6, fx.reasoner.ColumnDescriptionCalls)
	assert.Equal(t, 6, fx.columns.descriptionWrites)
}

func TestAnalyzeTable_OrdersTable(t *testing.T) {
	tables := newFakeTableRepo()
	columns := newFakeColumnRepo()
	env := &models.Environment{ID: uuid.New(), DataSourceID: uuid.New(), Name: "prod"}
	provider := &fakeDataSourceProvider{env: env, kind: models.EnginePostgres}

	table := tables.add(&models.Table{EnvironmentID: env.ID, SchemaName: "public", Name: "orders"})
	columns.add(&models.Column{TableID: table.ID, Name: "id", DataType: "uuid", IsPrimaryKey: true})
	columns.add(&models.Column{TableID: table.ID, Name: "customer_id", DataType: "uuid", IsForeignKey: true, ReferencedTable: "customers", ReferencedColumn: "id"})
	columns.add(&models.Column{TableID: table.ID, Name: "total", DataType: "numeric"})

	adapter := &fakeAdapter{
		rowCount: 3,
		rows: []engine.Row{
			{"id": "o1", "customer_id": "c1", "total": "12.50"},
			{"id": "o2", "customer_id": "c2", "total": "19.99"},
			{"id": "o3", "customer_id": "c1", "total": "7.25"},
		},
	}

	reasoner := llm.NewMockReasoningService()
	reasoner.GenerateBriefColumnDescriptionFunc = func(ctx context.Context, req llm.ColumnDescriptionRequest) (*llm.ColumnDescription, error) {
		switch req.ColumnName {
		case "id":
			assert.True(t, req.IsPrimaryKey)
			return &llm.ColumnDescription{Description: "Unique order identifier", ExampleValue: "o1", ValueType: "uuid"}, nil
		case "customer_id":
			return &llm.ColumnDescription{Description: "Customer who placed the order", ExampleValue: "c1", ValueType: "uuid"}, nil
		case "total":
			assert.ElementsMatch(t, []string{"12.50", "19.99", "7.25"}, req.SampleValues)
			return &llm.ColumnDescription{Description: "Order total amount", ExampleValue: "19.99", ValueType: "currency"}, nil
		}
		return nil, errors.New("unexpected column " + req.ColumnName)
	}

	logger := zap.NewNop()
	sampler := NewSampler(config.AnalysisConfig{SampleLimit: 50}, logger)
	pool := llm.NewWorkerPool(llm.WorkerPoolConfig{MaxConcurrent: 2}, logger)
	service := NewAnalysisService(tables, columns, provider, &fakeResolver{adapter: adapter}, sampler, reasoner, pool, logger)

	got, err := service.AnalyzeTable(context.Background(), table.ID, "")
	require.NoError(t, err)

	assert.Equal(t, models.AnalysisCompleted, got.AnalysisStatus)
	assert.Equal(t, "Table orders stores business records.", got.AnalysisResult.Summary)
	assert.Equal(t, 3, got.AnalysisResult.ColumnsAnalyzed)
	require.Len(t, got.AnalysisResult.ColumnFindings, 3)

	total := got.AnalysisResult.ColumnFindings[2]
	assert.Equal(t, "total", total.ColumnName)
	assert.Equal(t, "currency", total.ValuePattern)
	assert.Equal(t, "19.99", total.ExampleValue)
	assert.False(t, total.Failed)

	assert.Equal(t, 3, columns.descriptionWrites)
	assert.True(t, adapter.closed)
}

func TestAnalyzeTable_UsageAccumulatesColumnCalls(t *testing.T) {
	fx := newAnalysisFixture(t)
	fx.reasoner.GenerateBriefColumnDescriptionFunc = func(ctx context.Context, req llm.ColumnDescriptionRequest) (*llm.ColumnDescription, error) {
		return &llm.ColumnDescription{
			Description: "ok",
			Usage:       llm.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		}, nil
	}
	fx.reasoner.AnalyzeTableFunc = func(ctx context.Context, req llm.TableAnalysisRequest) (*llm.TableAnalysis, error) {
		return &llm.TableAnalysis{
			Content: "Users and their accounts.",
			Usage:   llm.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
		}, nil
	}

	got, err := fx.service.AnalyzeTable(context.Background(), fx.table.ID, "")
	require.NoError(t, err)

	// Three column calls plus the summary call.
	assert.Equal(t, models.TokenUsage{
		PromptTokens:     130,
		CompletionTokens: 35,
		TotalTokens:      165,
	}, got.AnalysisResult.Usage)
}

func TestFallbackColumnDescription(t *testing.T) {
	tests := []struct {
		name string
		col  *models.Column
		want string
	}{
		{"primary id", &models.Column{Name: "id"}, "Primary identifier for users"},
		{"declared fk", &models.Column{Name: "org_ref", IsForeignKey: true, ReferencedTable: "orgs", ReferencedColumn: "id"}, "Reference to orgs.id"},
		{"id suffix", &models.Column{Name: "account_id"}, "Reference to the accounts table"},
		{"plain", &models.Column{Name: "created_at"}, "The created at of a user record"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fallbackColumnDescription("users", tt.col))
		})
	}
}
