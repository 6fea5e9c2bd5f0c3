package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) (*Session, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	s := NewSession(db, zerolog.Nop())
	t.Cleanup(func() { _ = s.Close() })
	return s, mock
}

func TestWithinTxCommitsOnSuccess(t *testing.T) {
	s, mock := newTestSession(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM grades WHERE evaluation_id = ?").WithArgs(10).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := s.WithinTx(context.Background(), func(ctx context.Context) error {
		assert.True(t, s.InTx())
		ex, err := s.Executor(ctx)
		require.NoError(t, err)
		_, err = ex.ExecContext(ctx, "DELETE FROM grades WHERE evaluation_id = ?", 10)
		return err
	})
	require.NoError(t, err)
	assert.False(t, s.InTx())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	s, mock := newTestSession(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := s.WithinTx(context.Background(), func(context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, s.InTx())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxNestedJoinsOuterTransaction(t *testing.T) {
	s, mock := newTestSession(t)

	// One begin, one commit: the inner call joins instead of nesting.
	mock.ExpectBegin()
	mock.ExpectCommit()

	var innerRan bool
	err := s.WithinTx(context.Background(), func(ctx context.Context) error {
		return s.WithinTx(ctx, func(context.Context) error {
			innerRan = true
			assert.True(t, s.InTx())
			return nil
		})
	})
	require.NoError(t, err)
	assert.True(t, innerRan)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxInnerErrorRollsBackOuter(t *testing.T) {
	s, mock := newTestSession(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := s.WithinTx(context.Background(), func(ctx context.Context) error {
		return s.WithinTx(ctx, func(context.Context) error {
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxRollsBackOnPanic(t *testing.T) {
	s, mock := newTestSession(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	require.Panics(t, func() {
		_ = s.WithinTx(context.Background(), func(context.Context) error {
			panic("boom")
		})
	})
	assert.False(t, s.InTx())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutorOutsideTransactionUsesPinnedConnection(t *testing.T) {
	s, mock := newTestSession(t)

	mock.ExpectExec("DELETE FROM grades WHERE evaluation_id = ?").WithArgs(10).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ex, err := s.Executor(context.Background())
	require.NoError(t, err)
	_, err = ex.ExecContext(context.Background(), "DELETE FROM grades WHERE evaluation_id = ?", 10)
	require.NoError(t, err)
	assert.False(t, s.InTx())

	// The same pinned connection is handed out again.
	again, err := s.Executor(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ex, again)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseRollsBackOpenTransaction(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	s := NewSession(db, zerolog.Nop())

	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectClose()

	conn, err := s.pin(context.Background())
	require.NoError(t, err)
	tx, err := conn.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	s.tx = tx

	require.NoError(t, s.Close())
	assert.False(t, s.InTx())
	require.NoError(t, mock.ExpectationsWereMet())
}
