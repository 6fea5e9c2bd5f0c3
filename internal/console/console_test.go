package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guideresto/guideresto/internal/database"
	"github.com/guideresto/guideresto/internal/mapper"
	"github.com/guideresto/guideresto/internal/service"
)

func newTestConsole(t *testing.T, input string) (*Console, *bytes.Buffer, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	session := database.NewSession(db, zerolog.Nop())
	t.Cleanup(func() { _ = session.Close() })

	mappers := mapper.NewMappers(session, zerolog.Nop())
	guide := mapper.NewGuide(mappers, zerolog.Nop())
	restaurants := service.NewRestaurantService(session, guide, mappers, zerolog.Nop())
	evaluations := service.NewEvaluationService(session, mappers, zerolog.Nop())

	var out bytes.Buffer
	c := New(strings.NewReader(input), &out, restaurants, evaluations, zerolog.Nop())
	return c, &out, mock
}

func TestRunQuits(t *testing.T) {
	c, out, mock := newTestConsole(t, "0\n")

	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "Au revoir")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunStopsWhenInputEnds(t *testing.T) {
	c, _, mock := newTestConsole(t, "")

	require.NoError(t, c.Run(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunListsRestaurants(t *testing.T) {
	// Choice 1 lists everything, 0 backs out of the list, 0 quits.
	c, out, mock := newTestConsole(t, "1\n0\n0\n")

	mock.ExpectQuery("SELECT (.+) FROM restaurants ORDER BY name").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "street", "description", "website", "type_id", "city_id"}).
			AddRow(2, "Pizzeria Roma", "Rue Basse 5", nil, nil, 1, 1))
	mock.ExpectQuery("SELECT (.+) FROM cities WHERE id").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "zip_code", "name"}).
			AddRow(1, "2000", "Neuchâtel"))
	mock.ExpectQuery("SELECT (.+) FROM restaurant_types WHERE id").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "label", "description"}).
			AddRow(1, "Pizzeria", "Spécialités italiennes"))
	mock.ExpectQuery("SELECT (.+) FROM basic_evaluations WHERE restaurant_id").WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "liked", "visit_date", "ip_address", "restaurant_id"}))
	mock.ExpectQuery("SELECT (.+) FROM complete_evaluations WHERE restaurant_id").WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "visit_date", "comment", "username", "restaurant_id"}))

	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "Pizzeria Roma")
	assert.Contains(t, out.String(), "2000 Neuchâtel")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidNumberIsReprompted(t *testing.T) {
	c, out, _ := newTestConsole(t, "abc\n0\n")

	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "Veuillez saisir un nombre.")
}
