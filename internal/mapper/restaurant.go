package mapper

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/guideresto/guideresto/internal/database"
	"github.com/guideresto/guideresto/internal/model"
)

const (
	restaurantFindByID   = "SELECT id, name, street, description, website, type_id, city_id FROM restaurants WHERE id = ?"
	restaurantFindAll    = "SELECT id, name, street, description, website, type_id, city_id FROM restaurants ORDER BY name"
	restaurantFindByName = "SELECT id, name, street, description, website, type_id, city_id FROM restaurants WHERE UPPER(name) LIKE ? ORDER BY name"
	restaurantFindByType = "SELECT id, name, street, description, website, type_id, city_id FROM restaurants WHERE type_id = ? ORDER BY name"
	restaurantFindByCity = "SELECT id, name, street, description, website, type_id, city_id FROM restaurants WHERE city_id = ? ORDER BY name"
	restaurantInsert     = "INSERT INTO restaurants (name, street, description, website, type_id, city_id) VALUES (?, ?, ?, ?, ?, ?)"
	restaurantUpdate     = "UPDATE restaurants SET name = ?, street = ?, description = ?, website = ?, type_id = ?, city_id = ? WHERE id = ?"
	restaurantDelete     = "DELETE FROM restaurants WHERE id = ?"
	restaurantExists     = "SELECT 1 FROM restaurants WHERE id = ?"
	restaurantCount      = "SELECT COUNT(*) FROM restaurants"
)

// restaurantRow is the raw shape of one restaurants row, before foreign
// keys are resolved into entities.
type restaurantRow struct {
	id                   int
	name, street         string
	description, website sql.NullString
	typeID, cityID       int
}

// RestaurantMapper persists Restaurant entities. Every row-to-entity
// conversion resolves the owning City and RestaurantType through the
// respective mappers' FindByID, so repeated loads referencing the same city
// or type are served from those identity maps without another query.
type RestaurantMapper struct {
	base[*model.Restaurant]
	cities *CityMapper
	types  *RestaurantTypeMapper
}

// NewRestaurantMapper composes the city and type mappers for foreign-key
// resolution.
func NewRestaurantMapper(session *database.Session, log zerolog.Logger, cities *CityMapper, types *RestaurantTypeMapper) *RestaurantMapper {
	m := &RestaurantMapper{
		base:   newBase[*model.Restaurant]("Restaurant", session, log),
		cities: cities,
		types:  types,
	}
	m.fromDB = m.findByIDFromDB
	m.existsQuery = restaurantExists
	m.countQuery = restaurantCount
	return m
}

func (m *RestaurantMapper) findByIDFromDB(ctx context.Context, id int) (*model.Restaurant, error) {
	ex, err := m.session.Executor(ctx)
	if err != nil {
		return nil, opError("FIND Restaurant", err)
	}
	var rr restaurantRow
	err = ex.QueryRowContext(ctx, restaurantFindByID, id).
		Scan(&rr.id, &rr.name, &rr.street, &rr.description, &rr.website, &rr.typeID, &rr.cityID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Restaurant", id)
	}
	if err != nil {
		m.log.Error().Err(err).Int("id", id).Msg("find failed")
		return nil, opError("FIND Restaurant", err)
	}
	return m.fromRow(ctx, rr)
}

// fromRow turns a raw row into an entity, resolving the city and type
// through their mappers.
func (m *RestaurantMapper) fromRow(ctx context.Context, rr restaurantRow) (*model.Restaurant, error) {
	city, err := m.cities.FindByID(ctx, rr.cityID)
	if err != nil {
		return nil, err
	}
	typ, err := m.types.FindByID(ctx, rr.typeID)
	if err != nil {
		return nil, err
	}
	return &model.Restaurant{
		ID:          rr.id,
		Name:        rr.name,
		Street:      rr.street,
		Description: rr.description,
		Website:     rr.website,
		City:        city,
		Type:        typ,
	}, nil
}

// queryRestaurants runs a multi-row select. The result set is drained
// before foreign keys are resolved: everything runs on one connection,
// which cannot serve a second query while rows are still open.
func (m *RestaurantMapper) queryRestaurants(ctx context.Context, op, query string, args ...any) ([]*model.Restaurant, error) {
	ex, err := m.session.Executor(ctx)
	if err != nil {
		return nil, opError(op, err)
	}
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		m.log.Error().Err(err).Str("op", op).Msg("query failed")
		return nil, opError(op, err)
	}

	var raw []restaurantRow
	for rows.Next() {
		var rr restaurantRow
		if err := rows.Scan(&rr.id, &rr.name, &rr.street, &rr.description, &rr.website, &rr.typeID, &rr.cityID); err != nil {
			rows.Close()
			return nil, opError(op, err)
		}
		raw = append(raw, rr)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, opError(op, err)
	}
	rows.Close()

	restaurants := make([]*model.Restaurant, 0, len(raw))
	for _, rr := range raw {
		r, err := m.fromRow(ctx, rr)
		if err != nil {
			return nil, err
		}
		m.store(r)
		restaurants = append(restaurants, r)
	}
	return restaurants, nil
}

// FindAll loads every restaurant ordered by name, refreshing the identity
// map with each row.
func (m *RestaurantMapper) FindAll(ctx context.Context) ([]*model.Restaurant, error) {
	return m.queryRestaurants(ctx, "FIND ALL Restaurants", restaurantFindAll)
}

// FindByNameContains returns restaurants whose name contains the given
// substring, case-insensitive. The pattern is bound as a parameter, never
// spliced into the query.
func (m *RestaurantMapper) FindByNameContains(ctx context.Context, name string) ([]*model.Restaurant, error) {
	pattern := "%" + strings.ToUpper(name) + "%"
	return m.queryRestaurants(ctx, "FIND Restaurants by name", restaurantFindByName, pattern)
}

// FindByType returns restaurants of an exact type.
func (m *RestaurantMapper) FindByType(ctx context.Context, t *model.RestaurantType) ([]*model.Restaurant, error) {
	if t == nil || t.ID == 0 {
		return nil, nil
	}
	return m.FindByTypeID(ctx, t.ID)
}

// FindByTypeID returns restaurants referencing the given type identifier.
func (m *RestaurantMapper) FindByTypeID(ctx context.Context, typeID int) ([]*model.Restaurant, error) {
	return m.queryRestaurants(ctx, "FIND Restaurants by type", restaurantFindByType, typeID)
}

// FindByCityID returns restaurants located in the given city.
func (m *RestaurantMapper) FindByCityID(ctx context.Context, cityID int) ([]*model.Restaurant, error) {
	return m.queryRestaurants(ctx, "FIND Restaurants by city", restaurantFindByCity, cityID)
}

// Create inserts the restaurant and assigns its generated identifier. The
// owning city and type must already be persisted; a restaurant is never
// written with a dangling reference.
func (m *RestaurantMapper) Create(ctx context.Context, r *model.Restaurant) error {
	const op = "CREATE Restaurant"
	if r == nil {
		return ErrNilEntity
	}
	if r.City == nil || r.City.ID == 0 || r.Type == nil || r.Type.ID == 0 {
		return ErrUnsavedReference
	}
	n, err := m.exec(ctx, op, restaurantInsert,
		r.Name, r.Street, r.Description, r.Website, r.Type.ID, r.City.ID)
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
	r.ID = id
	m.store(r)
	m.log.Info().Int("id", id).Str("name", r.Name).Msg("restaurant created")
	return nil
}

// Update rewrites the row by identifier and refreshes the cache entry.
func (m *RestaurantMapper) Update(ctx context.Context, r *model.Restaurant) error {
	if r == nil {
		return ErrNilEntity
	}
	if r.ID == 0 {
		return ErrNoID
	}
	if r.City == nil || r.City.ID == 0 || r.Type == nil || r.Type.ID == 0 {
		return ErrUnsavedReference
	}
	n, err := m.exec(ctx, "UPDATE Restaurant", restaurantUpdate,
		r.Name, r.Street, r.Description, r.Website, r.Type.ID, r.City.ID, r.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("Restaurant", r.ID)
	}
	m.store(r)
	m.log.Info().Int("id", r.ID).Msg("restaurant updated")
	return nil
}

// Delete removes the restaurant's row and evicts it from the identity map.
// Evaluations referencing it must be gone first; Guide.DeleteRestaurantCompletely
// owns that ordering.
func (m *RestaurantMapper) Delete(ctx context.Context, r *model.Restaurant) error {
	if r == nil {
		return ErrNilEntity
	}
	return m.DeleteByID(ctx, r.ID)
}

// DeleteByID removes the row with the given identifier and evicts it from
// the identity map on success.
func (m *RestaurantMapper) DeleteByID(ctx context.Context, id int) error {
	n, err := m.exec(ctx, "DELETE Restaurant", restaurantDelete, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("Restaurant", id)
	}
	m.evict(id)
	m.log.Info().Int("id", id).Msg("restaurant deleted")
	return nil
}
