package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/schemalens/schemalens/pkg/adapters/engine"
	"github.com/schemalens/schemalens/pkg/apperrors"
	"github.com/schemalens/schemalens/pkg/models"
)

// fakeAdapter is an in-memory engine.Adapter for service tests.
type fakeAdapter struct {
	testConnectionErr error
	schemas           []string
	tables            []engine.TableMeta
	columns           []engine.ColumnMeta
	columnsErr        error
	rowCount          int64
	countErr          error
	rows              []engine.Row
	sampleErr         error
	closed            bool

	sampleCalls []int // limits passed to SampleRows
}

var _ engine.Adapter = (*fakeAdapter)(nil)

func (f *fakeAdapter) TestConnection(ctx context.Context) error { return f.testConnectionErr }

func (f *fakeAdapter) ListSchemas(ctx context.Context) ([]string, error) { return f.schemas, nil }

func (f *fakeAdapter) ListTables(ctx context.Context, filter engine.SchemaFilter) ([]engine.TableMeta, error) {
	var out []engine.TableMeta
	for _, t := range f.tables {
		if filter.Allowed(t.SchemaName, nil) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeAdapter) ListColumns(ctx context.Context, schemaName, tableName string) ([]engine.ColumnMeta, error) {
	return f.columns, f.columnsErr
}

func (f *fakeAdapter) CountRows(ctx context.Context, schemaName, tableName string) (int64, error) {
	return f.rowCount, f.countErr
}

func (f *fakeAdapter) SampleRows(ctx context.Context, schemaName, tableName string, limit int, totalRows int64) ([]engine.Row, error) {
	f.sampleCalls = append(f.sampleCalls, limit)
	return f.rows, f.sampleErr
}

func (f *fakeAdapter) Close() error {
	f.closed = true
	return nil
}

// fakeResolver hands out a fixed adapter or error.
type fakeResolver struct {
	adapter engine.Adapter
	err     error
}

var _ ConnectionResolver = (*fakeResolver)(nil)

func (f *fakeResolver) ResolveConfig(ctx context.Context, env *models.Environment, kind models.EngineKind) (map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	return env.Config, nil
}

func (f *fakeResolver) Connect(ctx context.Context, env *models.Environment, kind models.EngineKind) (engine.Adapter, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.adapter, nil
}

// fakeTableRepo is an in-memory TableRepository.
type fakeTableRepo struct {
	mu     sync.Mutex
	tables map[uuid.UUID]*models.Table

	statusHistory []models.AnalysisStatus
}

func newFakeTableRepo() *fakeTableRepo {
	return &fakeTableRepo{tables: make(map[uuid.UUID]*models.Table)}
}

func (r *fakeTableRepo) add(t *models.Table) *models.Table {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.AnalysisStatus == "" {
		t.AnalysisStatus = models.AnalysisPending
	}
	r.tables[t.ID] = t
	return t
}

func (r *fakeTableRepo) Create(ctx context.Context, t *models.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = uuid.New()
	t.AnalysisStatus = models.AnalysisPending
	r.tables[t.ID] = t
	return nil
}

func (r *fakeTableRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tables[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *fakeTableRepo) ListByEnvironment(ctx context.Context, environmentID uuid.UUID) ([]*models.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Table
	for _, t := range r.tables {
		if t.EnvironmentID == environmentID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTableRepo) MarkAnalyzing(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tables[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	t.AnalysisStatus = models.AnalysisAnalyzing
	t.AnalysisResult = nil
	t.AnalysisError = ""
	r.statusHistory = append(r.statusHistory, models.AnalysisAnalyzing)
	return nil
}

func (r *fakeTableRepo) CompleteAnalysis(ctx context.Context, id uuid.UUID, result *models.AnalysisResult, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tables[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	t.AnalysisStatus = models.AnalysisCompleted
	t.AnalysisResult = result
	t.AnalysisError = ""
	t.Description = description
	r.statusHistory = append(r.statusHistory, models.AnalysisCompleted)
	return nil
}

func (r *fakeTableRepo) FailAnalysis(ctx context.Context, id uuid.UUID, analysisError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tables[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	t.AnalysisStatus = models.AnalysisFailed
	t.AnalysisError = analysisError
	r.statusHistory = append(r.statusHistory, models.AnalysisFailed)
	return nil
}

func (r *fakeTableRepo) UpdateDescription(ctx context.Context, id uuid.UUID, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tables[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	t.Description = description
	return nil
}

func (r *fakeTableRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.tables, id)
	return nil
}

// fakeColumnRepo is an in-memory ColumnRepository.
type fakeColumnRepo struct {
	mu      sync.Mutex
	columns map[uuid.UUID]*models.Column
	seq     int

	descriptionWrites int
}

func newFakeColumnRepo() *fakeColumnRepo {
	return &fakeColumnRepo{columns: make(map[uuid.UUID]*models.Column)}
}

func (r *fakeColumnRepo) add(c *models.Column) *models.Column {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	// Strictly increasing timestamps keep ListByTable ordering stable.
	r.seq++
	c.CreatedAt = time.Unix(0, int64(r.seq))
	r.columns[c.ID] = c
	return c
}

func (r *fakeColumnRepo) CreateBatch(ctx context.Context, columns []*models.Column) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range columns {
		c.ID = uuid.New()
		r.columns[c.ID] = c
	}
	return nil
}

func (r *fakeColumnRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Column, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.columns[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return c, nil
}

func (r *fakeColumnRepo) ListByTable(ctx context.Context, tableID uuid.UUID) ([]*models.Column, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Column
	for _, c := range r.columns {
		if c.TableID == tableID {
			out = append(out, c)
		}
	}
	// Stable order by creation time, then name.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.Before(out[i].CreatedAt) ||
				(out[j].CreatedAt.Equal(out[i].CreatedAt) && out[j].Name < out[i].Name) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (r *fakeColumnRepo) UpdateAIDescription(ctx context.Context, id uuid.UUID, desc *models.ColumnAIDescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.columns[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	c.AIDescription = desc
	r.descriptionWrites++
	return nil
}

// fakeRelationshipRepo is an in-memory RelationshipRepository.
type fakeRelationshipRepo struct {
	mu   sync.Mutex
	rels []*models.Relationship
}

func newFakeRelationshipRepo() *fakeRelationshipRepo {
	return &fakeRelationshipRepo{}
}

func (r *fakeRelationshipRepo) Create(ctx context.Context, rel *models.Relationship) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rels {
		if existing.EnvironmentID == rel.EnvironmentID &&
			existing.SourceTableID == rel.SourceTableID && existing.SourceColumn == rel.SourceColumn &&
			existing.TargetTableID == rel.TargetTableID && existing.TargetColumn == rel.TargetColumn {
			return apperrors.ErrConflict
		}
	}
	rel.ID = uuid.New()
	r.rels = append(r.rels, rel)
	return nil
}

func (r *fakeRelationshipRepo) Exists(ctx context.Context, environmentID, sourceTableID uuid.UUID, sourceColumn string, targetTableID uuid.UUID, targetColumn string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rels {
		if existing.EnvironmentID == environmentID &&
			existing.SourceTableID == sourceTableID && existing.SourceColumn == sourceColumn &&
			existing.TargetTableID == targetTableID && existing.TargetColumn == targetColumn {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRelationshipRepo) ListByEnvironment(ctx context.Context, environmentID uuid.UUID) ([]*models.Relationship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Relationship
	for _, rel := range r.rels {
		if rel.EnvironmentID == environmentID {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (r *fakeRelationshipRepo) SetVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rel := range r.rels {
		if rel.ID == id {
			rel.IsVerified = verified
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (r *fakeRelationshipRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, rel := range r.rels {
		if rel.ID == id {
			r.rels = append(r.rels[:i], r.rels[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

// fakeDataSourceProvider implements the environment lookup surface of
// DataSourceService used by the analysis and health services.
type fakeDataSourceProvider struct {
	DataSourceService
	env  *models.Environment
	kind models.EngineKind
}

func (f *fakeDataSourceProvider) GetEnvironment(ctx context.Context, id uuid.UUID) (*models.Environment, error) {
	if f.env == nil || f.env.ID != id {
		return nil, apperrors.ErrNotFound
	}
	return f.env, nil
}

func (f *fakeDataSourceProvider) GetDataSource(ctx context.Context, id uuid.UUID) (*models.DataSource, error) {
	return &models.DataSource{ID: id, Name: "test-ds", EngineKind: f.kind}, nil
}
