package mapper

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guideresto/guideresto/internal/model"
)

func newTestGuide(t *testing.T) (*Guide, *Mappers, sqlmock.Sqlmock) {
	t.Helper()
	m, mock := newTestMappers(t)
	return NewGuide(m, zerolog.Nop()), m, mock
}

func TestGuideRestaurantWithEvaluationsUnionsBothKinds(t *testing.T) {
	g, m, mock := newTestGuide(t)
	ctx := context.Background()
	cacheRestaurant(t, m, mock, 3)

	visited := time.Date(2026, 8, 20, 19, 30, 0, 0, time.UTC)
	mock.ExpectQuery(basicEvalFindByRest).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "liked", "visit_date", "ip_address", "restaurant_id"}).
			AddRow(40, "T", visited, "203.0.113.7", 3))
	mock.ExpectQuery(completeEvalFindByRest).WithArgs(3).
		WillReturnRows(completeEvalColumns().
			AddRow(10, visited, nil, "gourmet42", 3))
	mock.ExpectQuery(gradeFindByEval).WithArgs(10).
		WillReturnRows(gradeColumns())

	r, err := g.RestaurantWithEvaluations(ctx, 3)
	require.NoError(t, err)
	require.Len(t, r.Evaluations, 2)

	_, isBasic := r.Evaluations[0].(*model.BasicEvaluation)
	_, isComplete := r.Evaluations[1].(*model.CompleteEvaluation)
	assert.True(t, isBasic)
	assert.True(t, isComplete)
	expectMet(t, mock)
}

func TestGuideSearchByCityFiltersClientSide(t *testing.T) {
	g, _, mock := newTestGuide(t)
	ctx := context.Background()

	mock.ExpectQuery(restaurantFindAll).WillReturnRows(restaurantColumns().
		AddRow(1, "Café du Lac", "Quai 2", nil, nil, 1, 1).
		AddRow(2, "Pizzeria Roma", "Rue Basse 5", nil, nil, 1, 2))
	mock.ExpectQuery(cityFindByID).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "zip_code", "name"}).
			AddRow(1, "2000", "Neuchâtel"))
	mock.ExpectQuery(typeFindByID).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "label", "description"}).
			AddRow(1, "Cuisine suisse", "Plats typiquement suisses"))
	mock.ExpectQuery(cityFindByID).WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "zip_code", "name"}).
			AddRow(2, "1000", "Lausanne"))

	// Only the match gets its evaluations loaded.
	mock.ExpectQuery(basicEvalFindByRest).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "liked", "visit_date", "ip_address", "restaurant_id"}))
	mock.ExpectQuery(completeEvalFindByRest).WithArgs(1).
		WillReturnRows(completeEvalColumns())

	matched, err := g.SearchByCity(ctx, "neuch")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "Café du Lac", matched[0].Name)
	expectMet(t, mock)
}

func TestGuideDeleteRestaurantCompletelyOrdersStatements(t *testing.T) {
	g, m, mock := newTestGuide(t)
	ctx := context.Background()
	r := cacheRestaurant(t, m, mock, 3)

	visited := time.Date(2026, 8, 20, 19, 30, 0, 0, time.UTC)

	// Reviews first (each cascading to its grades), then votes, then the
	// restaurant row: the mock is ordered, so any FK-unsafe reordering
	// fails the test.
	mock.ExpectQuery(completeEvalFindByRest).WithArgs(3).
		WillReturnRows(completeEvalColumns().
			AddRow(10, visited, nil, "gourmet42", 3))
	mock.ExpectQuery(gradeFindByEval).WithArgs(10).
		WillReturnRows(gradeColumns().AddRow(21, 4, 10, 1))
	mock.ExpectQuery(criteriaFindByID).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description"}).
			AddRow(1, "Service", "Qualité du service"))
	mock.ExpectExec(gradeDeleteByEval).WithArgs(10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(completeEvalDelete).WithArgs(10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(basicEvalFindByRest).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "liked", "visit_date", "ip_address", "restaurant_id"}).
			AddRow(40, "T", visited, "203.0.113.7", 3))
	mock.ExpectExec(basicEvalDelete).WithArgs(40).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(restaurantDelete).WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, g.DeleteRestaurantCompletely(ctx, r))
	assert.Equal(t, 0, m.Restaurants.CachedCount())
	expectMet(t, mock)
}

func TestGuideDeleteRestaurantRejectsTransient(t *testing.T) {
	g, _, _ := newTestGuide(t)

	err := g.DeleteRestaurantCompletely(context.Background(), &model.Restaurant{Name: "Café du Lac"})
	assert.ErrorIs(t, err, ErrNoID)
}
