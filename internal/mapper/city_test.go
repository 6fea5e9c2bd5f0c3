package mapper

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guideresto/guideresto/internal/model"
)

func TestCityFindByIDReturnsSameInstance(t *testing.T) {
	m, mock := newTestMappers(t)
	ctx := context.Background()

	mock.ExpectQuery(cityFindByID).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "zip_code", "name"}).
			AddRow(1, "2000", "Neuchâtel"))

	first, err := m.Cities.FindByID(ctx, 1)
	require.NoError(t, err)

	// Second lookup must be served from the identity map: no second query
	// is expected on the mock.
	second, err := m.Cities.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Same(t, first, second)
	expectMet(t, mock)
}

func TestCityFindByIDNotFound(t *testing.T) {
	m, mock := newTestMappers(t)

	mock.ExpectQuery(cityFindByID).WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id", "zip_code", "name"}))

	_, err := m.Cities.FindByID(context.Background(), 99)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "City", nf.Entity)
	assert.Equal(t, 99, nf.ID)
	expectMet(t, mock)
}

func TestCityFindAllRefreshesIdentityMap(t *testing.T) {
	m, mock := newTestMappers(t)
	ctx := context.Background()

	mock.ExpectQuery(cityFindAll).
		WillReturnRows(sqlmock.NewRows([]string{"id", "zip_code", "name"}).
			AddRow(1, "2000", "Neuchâtel").
			AddRow(2, "1000", "Lausanne"))

	cities, err := m.Cities.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, cities, 2)
	assert.Equal(t, 2, m.Cities.CachedCount())

	// A lookup after the list load hits the cache, not the database.
	cached, err := m.Cities.FindByID(ctx, 2)
	require.NoError(t, err)
	assert.Same(t, cities[1], cached)
	expectMet(t, mock)
}

func TestCityCreateAssignsGeneratedID(t *testing.T) {
	m, mock := newTestMappers(t)
	ctx := context.Background()

	mock.ExpectExec(cityInsert).WithArgs("2000", "Neuchâtel").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(lastInsertIDQuery).
		WillReturnRows(sqlmock.NewRows([]string{"LAST_INSERT_ID()"}).AddRow(7))

	city := &model.City{ZipCode: "2000", Name: "Neuchâtel"}
	require.NoError(t, m.Cities.Create(ctx, city))
	assert.Equal(t, 7, city.ID)

	// The created instance is cached under its new identifier.
	cached, err := m.Cities.FindByID(ctx, 7)
	require.NoError(t, err)
	assert.Same(t, city, cached)
	expectMet(t, mock)
}

func TestCityCreateNil(t *testing.T) {
	m, _ := newTestMappers(t)
	assert.ErrorIs(t, m.Cities.Create(context.Background(), nil), ErrNilEntity)
}

func TestCityUpdateTransient(t *testing.T) {
	m, _ := newTestMappers(t)
	err := m.Cities.Update(context.Background(), &model.City{Name: "Bienne"})
	assert.ErrorIs(t, err, ErrNoID)
}

func TestCityUpdateMissingRow(t *testing.T) {
	m, mock := newTestMappers(t)

	mock.ExpectExec(cityUpdate).WithArgs("2500", "Bienne", 4).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := m.Cities.Update(context.Background(), &model.City{ID: 4, ZipCode: "2500", Name: "Bienne"})
	assert.ErrorIs(t, err, ErrNotFound)
	expectMet(t, mock)
}

func TestCityDeleteEvicts(t *testing.T) {
	m, mock := newTestMappers(t)
	ctx := context.Background()

	mock.ExpectQuery(cityFindByID).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "zip_code", "name"}).
			AddRow(1, "2000", "Neuchâtel"))
	mock.ExpectExec(cityDelete).WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	city, err := m.Cities.FindByID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, m.Cities.CachedCount())

	require.NoError(t, m.Cities.Delete(ctx, city))
	assert.Equal(t, 0, m.Cities.CachedCount())
	expectMet(t, mock)
}

func TestCityExistsNoRow(t *testing.T) {
	m, mock := newTestMappers(t)

	mock.ExpectQuery(cityExists).WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	ok, err := m.Cities.Exists(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, ok)
	expectMet(t, mock)
}

func TestCityOperationErrorCarriesOperation(t *testing.T) {
	m, mock := newTestMappers(t)

	driverErr := errors.New("deadlock")
	mock.ExpectExec(cityInsert).WithArgs("2000", "Neuchâtel").
		WillReturnError(driverErr)

	err := m.Cities.Create(context.Background(), &model.City{ZipCode: "2000", Name: "Neuchâtel"})
	require.Error(t, err)

	var op *OperationError
	require.ErrorAs(t, err, &op)
	assert.Equal(t, "CREATE City", op.Op)
	assert.ErrorIs(t, err, driverErr)
	expectMet(t, mock)
}
