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
	typeFindByID = "SELECT id, label, description FROM restaurant_types WHERE id = ?"
	typeFindAll  = "SELECT id, label, description FROM restaurant_types ORDER BY label"
	typeInsert   = "INSERT INTO restaurant_types (label, description) VALUES (?, ?)"
	typeUpdate   = "UPDATE restaurant_types SET label = ?, description = ? WHERE id = ?"
	typeDelete   = "DELETE FROM restaurant_types WHERE id = ?"
	typeExists   = "SELECT 1 FROM restaurant_types WHERE id = ?"
	typeCount    = "SELECT COUNT(*) FROM restaurant_types"
)

// RestaurantTypeMapper persists RestaurantType reference data.
type RestaurantTypeMapper struct {
	base[*model.RestaurantType]
}

// NewRestaurantTypeMapper constructs a mapper with its own empty identity
// map.
func NewRestaurantTypeMapper(session *database.Session, log zerolog.Logger) *RestaurantTypeMapper {
	m := &RestaurantTypeMapper{base: newBase[*model.RestaurantType]("RestaurantType", session, log)}
	m.fromDB = m.findByIDFromDB
	m.existsQuery = typeExists
	m.countQuery = typeCount
	return m
}

func (m *RestaurantTypeMapper) findByIDFromDB(ctx context.Context, id int) (*model.RestaurantType, error) {
	ex, err := m.session.Executor(ctx)
	if err != nil {
		return nil, opError("FIND RestaurantType", err)
	}
	var t model.RestaurantType
	err = ex.QueryRowContext(ctx, typeFindByID, id).Scan(&t.ID, &t.Label, &t.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("RestaurantType", id)
	}
	if err != nil {
		m.log.Error().Err(err).Int("id", id).Msg("find failed")
		return nil, opError("FIND RestaurantType", err)
	}
	return &t, nil
}

// FindAll loads every type ordered by label, refreshing the identity map
// with each row.
func (m *RestaurantTypeMapper) FindAll(ctx context.Context) ([]*model.RestaurantType, error) {
	const op = "FIND ALL RestaurantTypes"
	ex, err := m.session.Executor(ctx)
	if err != nil {
		return nil, opError(op, err)
	}
	rows, err := ex.QueryContext(ctx, typeFindAll)
	if err != nil {
		m.log.Error().Err(err).Msg("find all failed")
		return nil, opError(op, err)
	}
	defer rows.Close()

	var types []*model.RestaurantType
	for rows.Next() {
		var t model.RestaurantType
		if err := rows.Scan(&t.ID, &t.Label, &t.Description); err != nil {
			return nil, opError(op, err)
		}
		m.store(&t)
		types = append(types, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, opError(op, err)
	}
	return types, nil
}

// Create inserts the type and assigns its generated identifier.
func (m *RestaurantTypeMapper) Create(ctx context.Context, t *model.RestaurantType) error {
	const op = "CREATE RestaurantType"
	if t == nil {
		return ErrNilEntity
	}
	n, err := m.exec(ctx, op, typeInsert, t.Label, t.Description)
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
	t.ID = id
	m.store(t)
	m.log.Info().Int("id", id).Str("label", t.Label).Msg("restaurant type created")
	return nil
}

// Update rewrites the row by identifier and refreshes the cache entry.
func (m *RestaurantTypeMapper) Update(ctx context.Context, t *model.RestaurantType) error {
	if t == nil {
		return ErrNilEntity
	}
	if t.ID == 0 {
		return ErrNoID
	}
	n, err := m.exec(ctx, "UPDATE RestaurantType", typeUpdate, t.Label, t.Description, t.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("RestaurantType", t.ID)
	}
	m.store(t)
	m.log.Info().Int("id", t.ID).Msg("restaurant type updated")
	return nil
}

// Delete removes the entity's row and evicts it from the identity map.
func (m *RestaurantTypeMapper) Delete(ctx context.Context, t *model.RestaurantType) error {
	if t == nil {
		return ErrNilEntity
	}
	return m.DeleteByID(ctx, t.ID)
}

// DeleteByID removes the row with the given identifier and evicts it from
// the identity map on success.
func (m *RestaurantTypeMapper) DeleteByID(ctx context.Context, id int) error {
	n, err := m.exec(ctx, "DELETE RestaurantType", typeDelete, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("RestaurantType", id)
	}
	m.evict(id)
	m.log.Info().Int("id", id).Msg("restaurant type deleted")
	return nil
}
