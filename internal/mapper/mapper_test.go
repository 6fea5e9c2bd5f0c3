package mapper

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/guideresto/guideresto/internal/database"
)

// newTestMappers builds the full mapper set on a mocked driver. The matcher
// compares SQL verbatim, so expectations use the same query constants the
// mappers execute.
func newTestMappers(t *testing.T) (*Mappers, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	session := database.NewSession(db, zerolog.Nop())
	t.Cleanup(func() { _ = session.Close() })
	return NewMappers(session, zerolog.Nop()), mock
}

func expectMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	require.NoError(t, mock.ExpectationsWereMet())
}
