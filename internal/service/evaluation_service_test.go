package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guideresto/guideresto/internal/database"
	"github.com/guideresto/guideresto/internal/mapper"
	"github.com/guideresto/guideresto/internal/model"
)

func newTestServices(t *testing.T) (*RestaurantService, *EvaluationService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	session := database.NewSession(db, zerolog.Nop())
	t.Cleanup(func() { _ = session.Close() })

	mappers := mapper.NewMappers(session, zerolog.Nop())
	guide := mapper.NewGuide(mappers, zerolog.Nop())
	restaurants := NewRestaurantService(session, guide, mappers, zerolog.Nop())
	evaluations := NewEvaluationService(session, mappers, zerolog.Nop())
	return restaurants, evaluations, mock
}

func persistedRestaurant() *model.Restaurant {
	return &model.Restaurant{
		ID:     3,
		Name:   "Café du Lac",
		Street: "Quai 2",
		City:   &model.City{ID: 1, ZipCode: "2000", Name: "Neuchâtel"},
		Type:   &model.RestaurantType{ID: 1, Label: "Cuisine suisse"},
	}
}

func TestAddCompleteEvaluationRejectsOutOfRangeGradeBeforeSQL(t *testing.T) {
	_, evaluations, mock := newTestServices(t)

	grades := map[*model.EvaluationCriteria]int{
		{ID: 1, Name: "Service"}: model.MaxGrade + 1,
	}
	_, err := evaluations.AddCompleteEvaluation(context.Background(),
		persistedRestaurant(), "gourmet42", "", grades)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	// Validation failed before any statement was issued.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddCompleteEvaluationRequiresUsername(t *testing.T) {
	_, evaluations, mock := newTestServices(t)

	_, err := evaluations.AddCompleteEvaluation(context.Background(),
		persistedRestaurant(), "   ", "", nil)
	assert.ErrorIs(t, err, ErrUsernameRequired)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddCompleteEvaluationRejectsTransientCriterion(t *testing.T) {
	_, evaluations, mock := newTestServices(t)

	grades := map[*model.EvaluationCriteria]int{
		{Name: "Service"}: 4, // no identifier
	}
	_, err := evaluations.AddCompleteEvaluation(context.Background(),
		persistedRestaurant(), "gourmet42", "", grades)
	assert.ErrorIs(t, err, mapper.ErrUnsavedReference)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddBasicEvaluationDefaultsMissingIP(t *testing.T) {
	_, evaluations, mock := newTestServices(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO basic_evaluations").
		WithArgs("T", sqlmock.AnyArg(), model.IPUnavailable, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT LAST_INSERT_ID").
		WillReturnRows(sqlmock.NewRows([]string{"LAST_INSERT_ID()"}).AddRow(40))
	mock.ExpectCommit()

	vote, err := evaluations.AddBasicEvaluation(context.Background(), persistedRestaurant(), true, "")
	require.NoError(t, err)
	assert.Equal(t, 40, vote.ID)
	assert.Equal(t, model.IPUnavailable, vote.IPAddress)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddBasicEvaluationRollsBackOnFailure(t *testing.T) {
	_, evaluations, mock := newTestServices(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO basic_evaluations").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := evaluations.AddBasicEvaluation(context.Background(), persistedRestaurant(), true, "203.0.113.7")
	require.Error(t, err)

	var op *mapper.OperationError
	assert.ErrorAs(t, err, &op)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchRequiresTerm(t *testing.T) {
	restaurants, _, mock := newTestServices(t)

	_, err := restaurants.SearchByName(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptySearch)

	_, err = restaurants.SearchByCity(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptySearch)

	require.NoError(t, mock.ExpectationsWereMet())
}
