package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/prompts"
)

// Reasoning call temperatures. Structured extraction runs cold; the
// table summary gets a little room.
const (
	descriptionTemperature  = 0.2
	summaryTemperature      = 0.4
	relationshipTemperature = 0.2
)

// Reasoner implements ReasoningService on top of a chat Client, building
// prompts and parsing structured responses.
type Reasoner struct {
	client Client
	logger *zap.Logger
}

// NewReasoner creates a reasoning service backed by the given client.
func NewReasoner(client Client, logger *zap.Logger) *Reasoner {
	return &Reasoner{
		client: client,
		logger: logger.Named("reasoner"),
	}
}

// GenerateBriefColumnDescription implements ReasoningService.
func (r *Reasoner) GenerateBriefColumnDescription(ctx context.Context, req ColumnDescriptionRequest) (*ColumnDescription, error) {
	prompt := prompts.BuildColumnDescriptionPrompt(prompts.ColumnDescriptionPromptInput{
		TableName:    req.TableName,
		ColumnName:   req.ColumnName,
		DataType:     req.DataType,
		IsNullable:   req.IsNullable,
		IsPrimaryKey: req.IsPrimaryKey,
		SampleValues: req.SampleValues,
		CustomPrompt: req.CustomPrompt,
	})

	result, err := r.client.GenerateResponse(ctx, prompt, prompts.ColumnDescriptionSystemMessage(), descriptionTemperature)
	if err != nil {
		return nil, fmt.Errorf("column description for %s.%s: %w", req.TableName, req.ColumnName, err)
	}

	desc, err := ParseJSONResponse[ColumnDescription](result.Content)
	if err != nil {
		return nil, fmt.Errorf("parse column description for %s.%s: %w", req.TableName, req.ColumnName, err)
	}
	if strings.TrimSpace(desc.Description) == "" {
		return nil, fmt.Errorf("empty description for %s.%s", req.TableName, req.ColumnName)
	}

	desc.Usage = Usage{
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
		TotalTokens:      result.TotalTokens,
	}
	return &desc, nil
}

// AnalyzeTable implements ReasoningService.
func (r *Reasoner) AnalyzeTable(ctx context.Context, req TableAnalysisRequest) (*TableAnalysis, error) {
	fields := make([]prompts.TableAnalysisField, len(req.Fields))
	for i, f := range req.Fields {
		fields[i] = prompts.TableAnalysisField{
			Name:         f.Name,
			DataType:     f.DataType,
			IsPrimaryKey: f.IsPrimaryKey,
			Description:  f.Description,
		}
	}

	prompt := prompts.BuildTableAnalysisPrompt(req.TableName, fields, req.RowCount, req.Note)

	result, err := r.client.GenerateResponse(ctx, prompt, prompts.TableAnalysisSystemMessage(), summaryTemperature)
	if err != nil {
		return nil, fmt.Errorf("table analysis for %s: %w", req.TableName, err)
	}

	return &TableAnalysis{
		Content: strings.TrimSpace(result.Content),
		Usage: Usage{
			PromptTokens:     result.PromptTokens,
			CompletionTokens: result.CompletionTokens,
			TotalTokens:      result.TotalTokens,
		},
	}, nil
}

// relationshipResponse is the wire shape of the relationship inference call.
type relationshipResponse struct {
	Relationships []RelationshipCandidate `json:"relationships"`
	Analysis      string                  `json:"analysis"`
}

// GenerateStructuredRelationships implements ReasoningService.
func (r *Reasoner) GenerateStructuredRelationships(ctx context.Context, tables []TableSchema) (*RelationshipProposal, error) {
	promptTables := make([]prompts.RelationshipTable, len(tables))
	for i, t := range tables {
		cols := make([]prompts.RelationshipColumn, len(t.Columns))
		for j, c := range t.Columns {
			cols[j] = prompts.RelationshipColumn{
				Name:         c.Name,
				DataType:     c.DataType,
				IsPrimaryKey: c.IsPrimaryKey,
			}
		}
		promptTables[i] = prompts.RelationshipTable{Name: t.Name, Columns: cols}
	}

	prompt := prompts.BuildRelationshipInferencePrompt(promptTables)

	result, err := r.client.GenerateResponse(ctx, prompt, prompts.RelationshipInferenceSystemMessage(), relationshipTemperature)
	if err != nil {
		return nil, fmt.Errorf("relationship inference: %w", err)
	}

	parsed, err := ParseJSONResponse[relationshipResponse](result.Content)
	if err != nil {
		return nil, fmt.Errorf("parse relationship inference response: %w", err)
	}

	r.logger.Debug("Relationship inference completed",
		zap.Int("candidates", len(parsed.Relationships)),
		zap.Int("tokens", result.TotalTokens))

	return &RelationshipProposal{
		Relationships: parsed.Relationships,
		Analysis:      parsed.Analysis,
		Usage: Usage{
			PromptTokens:     result.PromptTokens,
			CompletionTokens: result.CompletionTokens,
			TotalTokens:      result.TotalTokens,
		},
	}, nil
}

// Ensure Reasoner implements ReasoningService at compile time.
var _ ReasoningService = (*Reasoner)(nil)
