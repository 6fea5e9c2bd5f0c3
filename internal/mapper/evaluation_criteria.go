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
	criteriaFindByID = "SELECT id, name, description FROM evaluation_criteria WHERE id = ?"
	criteriaFindAll  = "SELECT id, name, description FROM evaluation_criteria ORDER BY name"
	criteriaInsert   = "INSERT INTO evaluation_criteria (name, description) VALUES (?, ?)"
	criteriaUpdate   = "UPDATE evaluation_criteria SET name = ?, description = ? WHERE id = ?"
	criteriaDelete   = "DELETE FROM evaluation_criteria WHERE id = ?"
	criteriaExists   = "SELECT 1 FROM evaluation_criteria WHERE id = ?"
	criteriaCount    = "SELECT COUNT(*) FROM evaluation_criteria"
)

// EvaluationCriteriaMapper persists the grading criteria. Criteria are read
// far more often than written (every grade load resolves one), so the
// identity map does most of the work here.
type EvaluationCriteriaMapper struct {
	base[*model.EvaluationCriteria]
}

// NewEvaluationCriteriaMapper constructs a mapper with its own empty
// identity map.
func NewEvaluationCriteriaMapper(session *database.Session, log zerolog.Logger) *EvaluationCriteriaMapper {
	m := &EvaluationCriteriaMapper{base: newBase[*model.EvaluationCriteria]("EvaluationCriteria", session, log)}
	m.fromDB = m.findByIDFromDB
	m.existsQuery = criteriaExists
	m.countQuery = criteriaCount
	return m
}

func (m *EvaluationCriteriaMapper) findByIDFromDB(ctx context.Context, id int) (*model.EvaluationCriteria, error) {
	ex, err := m.session.Executor(ctx)
	if err != nil {
		return nil, opError("FIND EvaluationCriteria", err)
	}
	var c model.EvaluationCriteria
	err = ex.QueryRowContext(ctx, criteriaFindByID, id).Scan(&c.ID, &c.Name, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("EvaluationCriteria", id)
	}
	if err != nil {
		m.log.Error().Err(err).Int("id", id).Msg("find failed")
		return nil, opError("FIND EvaluationCriteria", err)
	}
	return &c, nil
}

// FindAll loads every criterion ordered by name, refreshing the identity
// map with each row.
func (m *EvaluationCriteriaMapper) FindAll(ctx context.Context) ([]*model.EvaluationCriteria, error) {
	const op = "FIND ALL EvaluationCriteria"
	ex, err := m.session.Executor(ctx)
	if err != nil {
		return nil, opError(op, err)
	}
	rows, err := ex.QueryContext(ctx, criteriaFindAll)
	if err != nil {
		m.log.Error().Err(err).Msg("find all failed")
		return nil, opError(op, err)
	}
	defer rows.Close()

	var criteria []*model.EvaluationCriteria
	for rows.Next() {
		var c model.EvaluationCriteria
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, opError(op, err)
		}
		m.store(&c)
		criteria = append(criteria, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, opError(op, err)
	}
	return criteria, nil
}

// Create inserts the criterion and assigns its generated identifier.
func (m *EvaluationCriteriaMapper) Create(ctx context.Context, c *model.EvaluationCriteria) error {
	const op = "CREATE EvaluationCriteria"
	if c == nil {
		return ErrNilEntity
	}
	n, err := m.exec(ctx, op, criteriaInsert, c.Name, c.Description)
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
	c.ID = id
	m.store(c)
	m.log.Info().Int("id", id).Str("name", c.Name).Msg("criterion created")
	return nil
}

// Update rewrites the row by identifier and refreshes the cache entry.
func (m *EvaluationCriteriaMapper) Update(ctx context.Context, c *model.EvaluationCriteria) error {
	if c == nil {
		return ErrNilEntity
	}
	if c.ID == 0 {
		return ErrNoID
	}
	n, err := m.exec(ctx, "UPDATE EvaluationCriteria", criteriaUpdate, c.Name, c.Description, c.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("EvaluationCriteria", c.ID)
	}
	m.store(c)
	m.log.Info().Int("id", c.ID).Msg("criterion updated")
	return nil
}

// Delete removes the entity's row and evicts it from the identity map.
func (m *EvaluationCriteriaMapper) Delete(ctx context.Context, c *model.EvaluationCriteria) error {
	if c == nil {
		return ErrNilEntity
	}
	return m.DeleteByID(ctx, c.ID)
}

// DeleteByID removes the row with the given identifier and evicts it from
// the identity map on success.
func (m *EvaluationCriteriaMapper) DeleteByID(ctx context.Context, id int) error {
	n, err := m.exec(ctx, "DELETE EvaluationCriteria", criteriaDelete, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("EvaluationCriteria", id)
	}
	m.evict(id)
	m.log.Info().Int("id", id).Msg("criterion deleted")
	return nil
}
