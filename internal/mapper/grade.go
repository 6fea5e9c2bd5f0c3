package mapper

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog"

	"github.com/guideresto/guideresto/internal/database"
	"github.com/guideresto/guideresto/internal/model"
)

const (
	gradeFindByID     = "SELECT id, score, evaluation_id, criteria_id FROM grades WHERE id = ?"
	gradeFindAll      = "SELECT id, score, evaluation_id, criteria_id FROM grades"
	gradeFindByEval   = "SELECT id, score, evaluation_id, criteria_id FROM grades WHERE evaluation_id = ?"
	gradeInsert       = "INSERT INTO grades (score, evaluation_id, criteria_id) VALUES (?, ?, ?)"
	gradeUpdate       = "UPDATE grades SET score = ?, evaluation_id = ?, criteria_id = ? WHERE id = ?"
	gradeDelete       = "DELETE FROM grades WHERE id = ?"
	gradeDeleteByEval = "DELETE FROM grades WHERE evaluation_id = ?"
	gradeExists       = "SELECT 1 FROM grades WHERE id = ?"
	gradeCount        = "SELECT COUNT(*) FROM grades"
)

type gradeRow struct {
	id, score    int
	evaluationID int
	criteriaID   int
}

// GradeMapper persists Grade entities. On read it resolves only the
// criterion; the owning evaluation is deliberately left nil and set by the
// evaluation mapper afterwards. Resolving it here would recurse straight
// back into the evaluation mapper, which is loading this grade.
type GradeMapper struct {
	base[*model.Grade]
	criteria *EvaluationCriteriaMapper
}

// NewGradeMapper composes the criteria mapper for foreign-key resolution.
func NewGradeMapper(session *database.Session, log zerolog.Logger, criteria *EvaluationCriteriaMapper) *GradeMapper {
	m := &GradeMapper{
		base:     newBase[*model.Grade]("Grade", session, log),
		criteria: criteria,
	}
	m.fromDB = m.findByIDFromDB
	m.existsQuery = gradeExists
	m.countQuery = gradeCount
	return m
}

func (m *GradeMapper) findByIDFromDB(ctx context.Context, id int) (*model.Grade, error) {
	ex, err := m.session.Executor(ctx)
	if err != nil {
		return nil, opError("FIND Grade", err)
	}
	var gr gradeRow
	err = ex.QueryRowContext(ctx, gradeFindByID, id).
		Scan(&gr.id, &gr.score, &gr.evaluationID, &gr.criteriaID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Grade", id)
	}
	if err != nil {
		m.log.Error().Err(err).Int("id", id).Msg("find failed")
		return nil, opError("FIND Grade", err)
	}
	return m.fromRow(ctx, gr)
}

func (m *GradeMapper) fromRow(ctx context.Context, gr gradeRow) (*model.Grade, error) {
	criterion, err := m.criteria.FindByID(ctx, gr.criteriaID)
	if err != nil {
		return nil, err
	}
	// Evaluation stays nil here; the owning mapper sets the back-reference.
	return &model.Grade{ID: gr.id, Value: gr.score, Criteria: criterion}, nil
}

func (m *GradeMapper) queryGrades(ctx context.Context, op, query string, args ...any) ([]*model.Grade, error) {
	ex, err := m.session.Executor(ctx)
	if err != nil {
		return nil, opError(op, err)
	}
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		m.log.Error().Err(err).Str("op", op).Msg("query failed")
		return nil, opError(op, err)
	}

	// Drain before resolving criteria: one connection, one query at a time.
	var raw []gradeRow
	for rows.Next() {
		var gr gradeRow
		if err := rows.Scan(&gr.id, &gr.score, &gr.evaluationID, &gr.criteriaID); err != nil {
			rows.Close()
			return nil, opError(op, err)
		}
		raw = append(raw, gr)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, opError(op, err)
	}
	rows.Close()

	grades := make([]*model.Grade, 0, len(raw))
	for _, gr := range raw {
		g, err := m.fromRow(ctx, gr)
		if err != nil {
			return nil, err
		}
		m.store(g)
		grades = append(grades, g)
	}
	return grades, nil
}

// FindAll loads every grade, refreshing the identity map with each row.
func (m *GradeMapper) FindAll(ctx context.Context) ([]*model.Grade, error) {
	return m.queryGrades(ctx, "FIND ALL Grades", gradeFindAll)
}

// FindByEvaluationID returns the grades of one complete evaluation, without
// back-references; the caller attaches those.
func (m *GradeMapper) FindByEvaluationID(ctx context.Context, evaluationID int) ([]*model.Grade, error) {
	return m.queryGrades(ctx, "FIND Grades by evaluation", gradeFindByEval, evaluationID)
}

// Create inserts the grade and assigns its generated identifier. The owning
// evaluation and criterion must both be persisted.
func (m *GradeMapper) Create(ctx context.Context, g *model.Grade) error {
	const op = "CREATE Grade"
	if g == nil {
		return ErrNilEntity
	}
	if g.Evaluation == nil || g.Evaluation.ID == 0 || g.Criteria == nil || g.Criteria.ID == 0 {
		return ErrUnsavedReference
	}
	n, err := m.exec(ctx, op, gradeInsert, g.Value, g.Evaluation.ID, g.Criteria.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return opError(op, errNoRowsAffected)
	}
	id, err := m.generatedID(ctx)
	if err != nil {
		return err
	}
	g.ID = id
	m.store(g)
	m.log.Info().Int("id", id).Int("score", g.Value).Msg("grade created")
	return nil
}

// Update rewrites the row by identifier and refreshes the cache entry.
func (m *GradeMapper) Update(ctx context.Context, g *model.Grade) error {
	if g == nil {
		return ErrNilEntity
	}
	if g.ID == 0 {
		return ErrNoID
	}
	if g.Evaluation == nil || g.Evaluation.ID == 0 || g.Criteria == nil || g.Criteria.ID == 0 {
		return ErrUnsavedReference
	}
	n, err := m.exec(ctx, "UPDATE Grade", gradeUpdate, g.Value, g.Evaluation.ID, g.Criteria.ID, g.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("Grade", g.ID)
	}
	m.store(g)
	m.log.Info().Int("id", g.ID).Msg("grade updated")
	return nil
}

// Delete removes the entity's row and evicts it from the identity map.
func (m *GradeMapper) Delete(ctx context.Context, g *model.Grade) error {
	if g == nil {
		return ErrNilEntity
	}
	return m.DeleteByID(ctx, g.ID)
}

// DeleteByID removes the row with the given identifier and evicts it from
// the identity map on success.
func (m *GradeMapper) DeleteByID(ctx context.Context, id int) error {
	n, err := m.exec(ctx, "DELETE Grade", gradeDelete, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("Grade", id)
	}
	m.evict(id)
	m.log.Info().Int("id", id).Msg("grade deleted")
	return nil
}

// DeleteByEvaluationID bulk-deletes every grade of one evaluation, used by
// cascade deletes and by the replace-on-update strategy. Zero affected rows
// is fine: an evaluation without grades is legal. Cached grades belonging
// to the evaluation are swept by back-reference.
func (m *GradeMapper) DeleteByEvaluationID(ctx context.Context, evaluationID int) error {
	n, err := m.exec(ctx, "DELETE Grades by evaluation", gradeDeleteByEval, evaluationID)
	if err != nil {
		return err
	}
	for id, g := range m.cache {
		if g.Evaluation != nil && g.Evaluation.ID == evaluationID {
			delete(m.cache, id)
		}
	}
	m.log.Info().Int64("rows", n).Int("evaluation_id", evaluationID).Msg("grades deleted for evaluation")
	return nil
}
