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
	cityFindByID = "SELECT id, zip_code, name FROM cities WHERE id = ?"
	cityFindAll  = "SELECT id, zip_code, name FROM cities ORDER BY name"
	cityInsert   = "INSERT INTO cities (zip_code, name) VALUES (?, ?)"
	cityUpdate   = "UPDATE cities SET zip_code = ?, name = ? WHERE id = ?"
	cityDelete   = "DELETE FROM cities WHERE id = ?"
	cityExists   = "SELECT 1 FROM cities WHERE id = ?"
	cityCount    = "SELECT COUNT(*) FROM cities"
)

// CityMapper persists City entities in the cities table. No foreign keys to
// resolve on read; restaurants reference cities, not the other way around.
type CityMapper struct {
	base[*model.City]
}

// NewCityMapper constructs a mapper with its own empty identity map.
func NewCityMapper(session *database.Session, log zerolog.Logger) *CityMapper {
	m := &CityMapper{base: newBase[*model.City]("City", session, log)}
	m.fromDB = m.findByIDFromDB
	m.existsQuery = cityExists
	m.countQuery = cityCount
	return m
}

func (m *CityMapper) findByIDFromDB(ctx context.Context, id int) (*model.City, error) {
	ex, err := m.session.Executor(ctx)
	if err != nil {
		return nil, opError("FIND City", err)
	}
	var c model.City
	err = ex.QueryRowContext(ctx, cityFindByID, id).Scan(&c.ID, &c.ZipCode, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("City", id)
	}
	if err != nil {
		m.log.Error().Err(err).Int("id", id).Msg("find failed")
		return nil, opError("FIND City", err)
	}
	return &c, nil
}

// FindAll loads every city ordered by name. The read always hits the
// database; every returned row refreshes the identity map.
func (m *CityMapper) FindAll(ctx context.Context) ([]*model.City, error) {
	const op = "FIND ALL Cities"
	ex, err := m.session.Executor(ctx)
	if err != nil {
		return nil, opError(op, err)
	}
	rows, err := ex.QueryContext(ctx, cityFindAll)
	if err != nil {
		m.log.Error().Err(err).Msg("find all failed")
		return nil, opError(op, err)
	}
	defer rows.Close()

	var cities []*model.City
	for rows.Next() {
		var c model.City
		if err := rows.Scan(&c.ID, &c.ZipCode, &c.Name); err != nil {
			return nil, opError(op, err)
		}
		m.store(&c)
		cities = append(cities, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, opError(op, err)
	}
	return cities, nil
}

// Create inserts the city and assigns its generated identifier. The insert
// and the identifier fetch run back to back on the same session; committing
// is the caller's job.
func (m *CityMapper) Create(ctx context.Context, city *model.City) error {
	const op = "CREATE City"
	if city == nil {
		return ErrNilEntity
	}
	n, err := m.exec(ctx, op, cityInsert, city.ZipCode, city.Name)
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
	city.ID = id
	m.store(city)
	m.log.Info().Int("id", id).Str("name", city.Name).Msg("city created")
	return nil
}

// Update rewrites the row by identifier and refreshes the cache entry. Zero
// affected rows reports not-found.
func (m *CityMapper) Update(ctx context.Context, city *model.City) error {
	if city == nil {
		return ErrNilEntity
	}
	if city.ID == 0 {
		return ErrNoID
	}
	n, err := m.exec(ctx, "UPDATE City", cityUpdate, city.ZipCode, city.Name, city.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("City", city.ID)
	}
	m.store(city)
	m.log.Info().Int("id", city.ID).Msg("city updated")
	return nil
}

// Delete removes the entity's row and evicts it from the identity map.
func (m *CityMapper) Delete(ctx context.Context, city *model.City) error {
	if city == nil {
		return ErrNilEntity
	}
	return m.DeleteByID(ctx, city.ID)
}

// DeleteByID removes the row with the given identifier and evicts it from
// the identity map on success.
func (m *CityMapper) DeleteByID(ctx context.Context, id int) error {
	n, err := m.exec(ctx, "DELETE City", cityDelete, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("City", id)
	}
	m.evict(id)
	m.log.Info().Int("id", id).Msg("city deleted")
	return nil
}
