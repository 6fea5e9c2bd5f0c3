package mapper

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/guideresto/guideresto/internal/database"
	"github.com/guideresto/guideresto/internal/model"
)

const (
	completeEvalFindByID   = "SELECT id, visit_date, comment, username, restaurant_id FROM complete_evaluations WHERE id = ?"
	completeEvalFindAll    = "SELECT id, visit_date, comment, username, restaurant_id FROM complete_evaluations ORDER BY visit_date DESC"
	completeEvalFindByRest = "SELECT id, visit_date, comment, username, restaurant_id FROM complete_evaluations WHERE restaurant_id = ? ORDER BY visit_date DESC"
	completeEvalInsert     = "INSERT INTO complete_evaluations (visit_date, comment, username, restaurant_id) VALUES (?, ?, ?, ?)"
	completeEvalUpdate     = "UPDATE complete_evaluations SET visit_date = ?, comment = ?, username = ?, restaurant_id = ? WHERE id = ?"
	completeEvalDelete     = "DELETE FROM complete_evaluations WHERE id = ?"
	completeEvalExists     = "SELECT 1 FROM complete_evaluations WHERE id = ?"
	completeEvalCount      = "SELECT COUNT(*) FROM complete_evaluations"
)

type completeEvalRow struct {
	id           int
	visitedAt    time.Time
	comment      sql.NullString
	username     string
	restaurantID int
}

// CompleteEvaluationMapper persists the signed reviews and owns their grade
// sets. Writes touching grades span two tables; they are atomic only under
// the caller's transaction.
type CompleteEvaluationMapper struct {
	base[*model.CompleteEvaluation]
	restaurants *RestaurantMapper
	grades      *GradeMapper
}

// NewCompleteEvaluationMapper composes the restaurant mapper (owner
// resolution) and the grade mapper (grade-set loading and persistence).
func NewCompleteEvaluationMapper(session *database.Session, log zerolog.Logger, restaurants *RestaurantMapper, grades *GradeMapper) *CompleteEvaluationMapper {
	m := &CompleteEvaluationMapper{
		base:        newBase[*model.CompleteEvaluation]("CompleteEvaluation", session, log),
		restaurants: restaurants,
		grades:      grades,
	}
	m.fromDB = m.findByIDFromDB
	m.existsQuery = completeEvalExists
	m.countQuery = completeEvalCount
	return m
}

func (m *CompleteEvaluationMapper) findByIDFromDB(ctx context.Context, id int) (*model.CompleteEvaluation, error) {
	ex, err := m.session.Executor(ctx)
	if err != nil {
		return nil, opError("FIND CompleteEvaluation", err)
	}
	var er completeEvalRow
	err = ex.QueryRowContext(ctx, completeEvalFindByID, id).
		Scan(&er.id, &er.visitedAt, &er.comment, &er.username, &er.restaurantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("CompleteEvaluation", id)
	}
	if err != nil {
		m.log.Error().Err(err).Int("id", id).Msg("find failed")
		return nil, opError("FIND CompleteEvaluation", err)
	}
	return m.fromRow(ctx, er)
}

// fromRow builds the evaluation in two phases: the grades are loaded
// without their owner, then the back-reference is set on each. Loading the
// owner inside the grade mapper instead would recurse forever.
func (m *CompleteEvaluationMapper) fromRow(ctx context.Context, er completeEvalRow) (*model.CompleteEvaluation, error) {
	restaurant, err := m.restaurants.FindByID(ctx, er.restaurantID)
	if err != nil {
		return nil, err
	}
	eval := &model.CompleteEvaluation{
		EvaluationBase: model.EvaluationBase{ID: er.id, VisitedAt: er.visitedAt, Restaurant: restaurant},
		Comment:        er.comment,
		Username:       er.username,
	}
	grades, err := m.grades.FindByEvaluationID(ctx, er.id)
	if err != nil {
		return nil, err
	}
	for _, g := range grades {
		g.Evaluation = eval
	}
	eval.Grades = grades
	return eval, nil
}

func (m *CompleteEvaluationMapper) queryEvaluations(ctx context.Context, op, query string, args ...any) ([]*model.CompleteEvaluation, error) {
	ex, err := m.session.Executor(ctx)
	if err != nil {
		return nil, opError(op, err)
	}
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		m.log.Error().Err(err).Str("op", op).Msg("query failed")
		return nil, opError(op, err)
	}

	// Drain before resolving owners and grades: one connection, one query
	// at a time.
	var raw []completeEvalRow
	for rows.Next() {
		var er completeEvalRow
		if err := rows.Scan(&er.id, &er.visitedAt, &er.comment, &er.username, &er.restaurantID); err != nil {
			rows.Close()
			return nil, opError(op, err)
		}
		raw = append(raw, er)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, opError(op, err)
	}
	rows.Close()

	evaluations := make([]*model.CompleteEvaluation, 0, len(raw))
	for _, er := range raw {
		e, err := m.fromRow(ctx, er)
		if err != nil {
			return nil, err
		}
		m.store(e)
		evaluations = append(evaluations, e)
	}
	return evaluations, nil
}

// FindAll loads every complete evaluation, newest first, refreshing the
// identity map with each row.
func (m *CompleteEvaluationMapper) FindAll(ctx context.Context) ([]*model.CompleteEvaluation, error) {
	return m.queryEvaluations(ctx, "FIND ALL CompleteEvaluations", completeEvalFindAll)
}

// FindByRestaurantID returns the reviews written for one restaurant, newest
// first, grades attached.
func (m *CompleteEvaluationMapper) FindByRestaurantID(ctx context.Context, restaurantID int) ([]*model.CompleteEvaluation, error) {
	return m.queryEvaluations(ctx, "FIND CompleteEvaluations by restaurant", completeEvalFindByRest, restaurantID)
}

// Create inserts the evaluation row, assigns the generated identifier, then
// persists each grade through the grade mapper with its back-reference set.
// A failure partway through leaves earlier statements pending in the
// caller's transaction; the caller rolls back.
func (m *CompleteEvaluationMapper) Create(ctx context.Context, e *model.CompleteEvaluation) error {
	const op = "CREATE CompleteEvaluation"
	if e == nil {
		return ErrNilEntity
	}
	if e.Restaurant == nil || e.Restaurant.ID == 0 {
		return ErrUnsavedReference
	}
	n, err := m.exec(ctx, op, completeEvalInsert,
		e.VisitedAt, e.Comment, e.Username, e.Restaurant.ID)
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
	e.ID = id
	for _, g := range e.Grades {
		g.Evaluation = e
		if err := m.grades.Create(ctx, g); err != nil {
			return err
		}
	}
	m.store(e)
	m.log.Info().Int("id", id).Int("grades", len(e.Grades)).Msg("complete evaluation created")
	return nil
}

// Update rewrites the evaluation row, then replaces the grade set
// wholesale: every existing grade is deleted and the supplied set is
// reinserted. Simpler than diffing, with the documented consequence that a
// grade absent from the new set is unconditionally lost.
func (m *CompleteEvaluationMapper) Update(ctx context.Context, e *model.CompleteEvaluation) error {
	if e == nil {
		return ErrNilEntity
	}
	if e.ID == 0 {
		return ErrNoID
	}
	if e.Restaurant == nil || e.Restaurant.ID == 0 {
		return ErrUnsavedReference
	}
	n, err := m.exec(ctx, "UPDATE CompleteEvaluation", completeEvalUpdate,
		e.VisitedAt, e.Comment, e.Username, e.Restaurant.ID, e.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("CompleteEvaluation", e.ID)
	}
	if err := m.grades.DeleteByEvaluationID(ctx, e.ID); err != nil {
		return err
	}
	for _, g := range e.Grades {
		g.Evaluation = e
		g.ID = 0 // reinserted under a fresh identifier
		if err := m.grades.Create(ctx, g); err != nil {
			return err
		}
	}
	m.store(e)
	m.log.Info().Int("id", e.ID).Int("grades", len(e.Grades)).Msg("complete evaluation updated")
	return nil
}

// Delete removes the evaluation and its grades, grades first.
func (m *CompleteEvaluationMapper) Delete(ctx context.Context, e *model.CompleteEvaluation) error {
	if e == nil {
		return ErrNilEntity
	}
	return m.DeleteByID(ctx, e.ID)
}

// DeleteByID deletes the evaluation's grades, then the evaluation row, in
// that order to satisfy the foreign key. Evicts the identifier from the
// identity map on success.
func (m *CompleteEvaluationMapper) DeleteByID(ctx context.Context, id int) error {
	if err := m.grades.DeleteByEvaluationID(ctx, id); err != nil {
		return err
	}
	n, err := m.exec(ctx, "DELETE CompleteEvaluation", completeEvalDelete, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("CompleteEvaluation", id)
	}
	m.evict(id)
	m.log.Info().Int("id", id).Msg("complete evaluation deleted")
	return nil
}
