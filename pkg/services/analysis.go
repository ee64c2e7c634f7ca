package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/llm"
	"github.com/schemalens/schemalens/pkg/models"
	"github.com/schemalens/schemalens/pkg/repositories"
)

// maxDescriptionLength bounds the table description derived from the
// analysis summary.
const maxDescriptionLength = 500

// AnalysisService runs the table analysis pipeline: PENDING tables move to
// ANALYZING, then COMPLETED with a structured result or FAILED with a
// reason. Re-running analysis on a terminal table starts a fresh run.
type AnalysisService interface {
	// AnalyzeTable runs one full analysis and returns the updated table.
	AnalyzeTable(ctx context.Context, tableID uuid.UUID, customPrompt string) (*models.Table, error)

	// GetTable returns a table with its current analysis state.
	GetTable(ctx context.Context, tableID uuid.UUID) (*models.Table, error)

	// ListTables returns all tables of an environment.
	ListTables(ctx context.Context, environmentID uuid.UUID) ([]*models.Table, error)

	// DeleteTable removes a table, its columns, and its relationships.
	DeleteTable(ctx context.Context, tableID uuid.UUID) error

	// UpdateTableDescription sets a user-provided table description.
	UpdateTableDescription(ctx context.Context, tableID uuid.UUID, description string) error

	// ListColumns returns the imported columns of a table.
	ListColumns(ctx context.Context, tableID uuid.UUID) ([]*models.Column, error)

	// UpdateColumnDescription stores a user-provided description triple.
	UpdateColumnDescription(ctx context.Context, columnID uuid.UUID, desc *models.ColumnAIDescription) error
}

type analysisService struct {
	tables      repositories.TableRepository
	columns     repositories.ColumnRepository
	dataSources DataSourceService
	resolver    ConnectionResolver
	sampler     *Sampler
	reasoner    llm.ReasoningService
	pool        *llm.WorkerPool
	logger      *zap.Logger
}

// NewAnalysisService creates the analysis orchestrator.
func NewAnalysisService(
	tables repositories.TableRepository,
	columns repositories.ColumnRepository,
	dataSources DataSourceService,
	resolver ConnectionResolver,
	sampler *Sampler,
	reasoner llm.ReasoningService,
	pool *llm.WorkerPool,
	logger *zap.Logger,
) AnalysisService {
	return &analysisService{
		tables:      tables,
		columns:     columns,
		dataSources: dataSources,
		resolver:    resolver,
		sampler:     sampler,
		reasoner:    reasoner,
		pool:        pool,
		logger:      logger.Named("analysis-service"),
	}
}

var _ AnalysisService = (*analysisService)(nil)

func (s *analysisService) GetTable(ctx context.Context, tableID uuid.UUID) (*models.Table, error) {
	return s.tables.GetByID(ctx, tableID)
}

func (s *analysisService) ListTables(ctx context.Context, environmentID uuid.UUID) ([]*models.Table, error) {
	return s.tables.ListByEnvironment(ctx, environmentID)
}

func (s *analysisService) DeleteTable(ctx context.Context, tableID uuid.UUID) error {
	return s.tables.Delete(ctx, tableID)
}

func (s *analysisService) UpdateTableDescription(ctx context.Context, tableID uuid.UUID, description string) error {
	return s.tables.UpdateDescription(ctx, tableID, truncate(description, maxDescriptionLength))
}

func (s *analysisService) ListColumns(ctx context.Context, tableID uuid.UUID) ([]*models.Column, error) {
	return s.columns.ListByTable(ctx, tableID)
}

func (s *analysisService) UpdateColumnDescription(ctx context.Context, columnID uuid.UUID, desc *models.ColumnAIDescription) error {
	return s.columns.UpdateAIDescription(ctx, columnID, desc)
}

func (s *analysisService) AnalyzeTable(ctx context.Context, tableID uuid.UUID, customPrompt string) (*models.Table, error) {
	table, err := s.tables.GetByID(ctx, tableID)
	if err != nil {
		return nil, err
	}

	env, err := s.dataSources.GetEnvironment(ctx, table.EnvironmentID)
	if err != nil {
		return nil, err
	}
	ds, err := s.dataSources.GetDataSource(ctx, env.DataSourceID)
	if err != nil {
		return nil, err
	}

	// The ANALYZING transition is persisted before any engine or reasoning
	// work so observers see the run in flight.
	if err := s.tables.MarkAnalyzing(ctx, tableID); err != nil {
		return nil, err
	}

	result, runErr := s.runAnalysis(ctx, table, env, ds.EngineKind, customPrompt)
	if runErr != nil {
		if failErr := s.tables.FailAnalysis(ctx, tableID, runErr.Error()); failErr != nil {
			s.logger.Error("Could not record analysis failure",
				zap.String("table", table.Name), zap.Error(failErr))
		}
		return nil, runErr
	}

	description := truncate(result.Summary, maxDescriptionLength)
	if err := s.tables.CompleteAnalysis(ctx, tableID, result, description); err != nil {
		return nil, err
	}

	s.logger.Info("Table analysis completed",
		zap.String("table", table.Name),
		zap.Int("columns", result.ColumnsAnalyzed),
		zap.Int("tokens", result.Usage.TotalTokens))

	return s.tables.GetByID(ctx, tableID)
}

func (s *analysisService) runAnalysis(ctx context.Context, table *models.Table, env *models.Environment, kind models.EngineKind, customPrompt string) (*models.AnalysisResult, error) {
	adapter, err := s.resolver.Connect(ctx, env, kind)
	if err != nil {
		return nil, err
	}
	defer adapter.Close()

	columns, err := s.columns.ListByTable(ctx, table.ID)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s has no imported columns", table.Name)
	}

	// Sampling degrades rather than fails; the run proceeds on schema
	// metadata alone when the source refuses to be read.
	sample := s.sampler.SampleForAnalysis(ctx, adapter, table.SchemaName, table.Name)

	findings, columnUsage := s.describeColumns(ctx, table, columns, sample, customPrompt)

	summary, usage := s.summarizeTable(ctx, table, columns, findings, sample)
	usage.Add(columnUsage)

	result := &models.AnalysisResult{
		Summary:               summary,
		ColumnsAnalyzed:       len(findings),
		ColumnFindings:        findings,
		SuggestedImprovements: suggestImprovements(columns, sample),
		AnalyzedAt:            time.Now(),
		Usage:                 usage,
	}
	return result, nil
}

// columnOutcome pairs one column's finding with the tokens its reasoning
// call consumed.
type columnOutcome struct {
	finding models.ColumnFinding
	usage   models.TokenUsage
}

// describeColumns fans out one reasoning call per column with bounded
// parallelism. A failing column never fails the run: it gets a
// deterministic fallback description plus an error marker. All findings
// are gathered before any persistence happens. The returned usage is the
// sum across all column calls.
func (s *analysisService) describeColumns(ctx context.Context, table *models.Table, columns []*models.Column, sample *TableSample, customPrompt string) ([]models.ColumnFinding, models.TokenUsage) {
	tasks := make([]llm.Task[columnOutcome], len(columns))
	order := make(map[string]int, len(columns))

	for i, col := range columns {
		col := col
		order[col.Name] = i
		tasks[i] = llm.Task[columnOutcome]{
			ID: col.Name,
			Execute: func(ctx context.Context) (columnOutcome, error) {
				return s.describeColumn(ctx, table, col, sample, customPrompt), nil
			},
		}
	}

	results := llm.Process(ctx, s.pool, tasks)

	findings := make([]models.ColumnFinding, 0, len(results))
	var usage models.TokenUsage
	for _, r := range results {
		findings = append(findings, r.Result.finding)
		usage.Add(r.Result.usage)
	}
	sort.Slice(findings, func(i, j int) bool {
		return order[findings[i].ColumnName] < order[findings[j].ColumnName]
	})

	for i, finding := range findings {
		s.persistFinding(ctx, columns[i], finding)
	}
	return findings, usage
}

func (s *analysisService) describeColumn(ctx context.Context, table *models.Table, col *models.Column, sample *TableSample, customPrompt string) columnOutcome {
	var sampleValues []string
	if sample.ColumnValues != nil {
		sampleValues = sample.ColumnValues[col.Name]
	}

	desc, err := s.reasoner.GenerateBriefColumnDescription(ctx, llm.ColumnDescriptionRequest{
		TableName:    table.Name,
		ColumnName:   col.Name,
		DataType:     col.DataType,
		IsNullable:   col.IsNullable,
		IsPrimaryKey: col.IsPrimaryKey,
		SampleValues: sampleValues,
		CustomPrompt: customPrompt,
	})
	if err != nil {
		s.logger.Warn("Column description failed, using fallback",
			zap.String("table", table.Name),
			zap.String("column", col.Name),
			zap.Error(err))
		return columnOutcome{finding: models.ColumnFinding{
			ColumnName:  col.Name,
			Description: fallbackColumnDescription(table.Name, col),
			Failed:      true,
			Error:       err.Error(),
		}}
	}

	return columnOutcome{
		finding: models.ColumnFinding{
			ColumnName:   col.Name,
			Description:  desc.Description,
			ExampleValue: desc.ExampleValue,
			ValuePattern: desc.ValueType,
		},
		usage: models.TokenUsage{
			PromptTokens:     desc.Usage.PromptTokens,
			CompletionTokens: desc.Usage.CompletionTokens,
			TotalTokens:      desc.Usage.TotalTokens,
		},
	}
}

func (s *analysisService) persistFinding(ctx context.Context, col *models.Column, finding models.ColumnFinding) {
	err := s.columns.UpdateAIDescription(ctx, col.ID, &models.ColumnAIDescription{
		Purpose:      finding.Description,
		ExampleValue: finding.ExampleValue,
		ValuePattern: finding.ValuePattern,
	})
	if err != nil {
		s.logger.Warn("Could not persist column description",
			zap.String("column", col.Name), zap.Error(err))
	}
}

func (s *analysisService) summarizeTable(ctx context.Context, table *models.Table, columns []*models.Column, findings []models.ColumnFinding, sample *TableSample) (string, models.TokenUsage) {
	descriptions := make(map[string]string, len(findings))
	for _, f := range findings {
		descriptions[f.ColumnName] = f.Description
	}

	fields := make([]llm.TableField, len(columns))
	for i, col := range columns {
		fields[i] = llm.TableField{
			Name:         col.Name,
			DataType:     col.DataType,
			IsPrimaryKey: col.IsPrimaryKey,
			Description:  descriptions[col.Name],
		}
	}

	analysis, err := s.reasoner.AnalyzeTable(ctx, llm.TableAnalysisRequest{
		TableName: table.Name,
		Fields:    fields,
		RowCount:  sample.RowCount,
		Note:      sample.Note,
	})
	if err != nil {
		s.logger.Warn("Table summary failed, using fallback",
			zap.String("table", table.Name), zap.Error(err))
		return fmt.Sprintf("AI analysis completed for %s", table.Name), models.TokenUsage{}
	}

	return analysis.Content, models.TokenUsage{
		PromptTokens:     analysis.Usage.PromptTokens,
		CompletionTokens: analysis.Usage.CompletionTokens,
		TotalTokens:      analysis.Usage.TotalTokens,
	}
}

// suggestImprovements derives actionable followups from introspected
// metadata. Suggestions are advisory; nothing acts on them automatically.
func suggestImprovements(columns []*models.Column, sample *TableSample) []string {
	var suggestions []string

	var uncommented []string
	for _, col := range columns {
		if col.Comment == "" {
			uncommented = append(uncommented, col.Name)
		}
	}
	if len(uncommented) > 0 && len(uncommented) < len(columns) {
		suggestions = append(suggestions,
			fmt.Sprintf("Add database comments to columns: %s", strings.Join(uncommented, ", ")))
	}

	if sample.Degraded {
		suggestions = append(suggestions,
			"Grant the connected user read access so rows can be sampled")
	}

	return suggestions
}

func fallbackColumnDescription(tableName string, col *models.Column) string {
	name := strings.ToLower(col.Name)
	switch {
	case name == "id":
		return fmt.Sprintf("Primary identifier for %s", tableName)
	case col.IsForeignKey && col.ReferencedTable != "":
		return fmt.Sprintf("Reference to %s.%s", col.ReferencedTable, col.ReferencedColumn)
	case strings.HasSuffix(name, "_id"):
		base := strings.TrimSuffix(name, "_id")
		return fmt.Sprintf("Reference to the %s table", inflection.Plural(base))
	default:
		return fmt.Sprintf("The %s of a %s record",
			strings.ReplaceAll(name, "_", " "), inflection.Singular(tableName))
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
