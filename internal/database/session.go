package database

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"
)

// DBTX is the executor surface the mappers depend on. Both *sql.Conn and
// *sql.Tx satisfy it, so mapper statements transparently run on the pinned
// session or inside the active transaction, and tests can drive the layer
// through a mocked driver.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Session owns the single database session the application runs on. It pins
// one connection lazily, hands out the active transaction while one is open,
// and is the only place that ever begins, commits or rolls back.
//
// Session is not safe for concurrent use. The mapper layer above it keeps
// unlocked caches for the same reason: one logical thread of control against
// one physical connection.
type Session struct {
	db   *sql.DB
	conn *sql.Conn
	tx   *sql.Tx
	log  zerolog.Logger
}

// NewSession wraps an open database handle. The connection itself is not
// pinned until the first statement needs it.
func NewSession(db *sql.DB, log zerolog.Logger) *Session {
	return &Session{db: db, log: log.With().Str("component", "session").Logger()}
}

// Executor returns the executor mapper statements must run on: the active
// transaction when one is open, otherwise the pinned connection, creating
// it first if absent.
func (s *Session) Executor(ctx context.Context) (DBTX, error) {
	if s.tx != nil {
		return s.tx, nil
	}
	conn, err := s.pin(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (s *Session) pin(ctx context.Context) (*sql.Conn, error) {
	if s.conn != nil {
		return s.conn, nil
	}
	conn, err := s.db.Conn(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("pinning connection failed")
		return nil, err
	}
	s.log.Debug().Msg("database session pinned")
	s.conn = conn
	return conn, nil
}

// WithinTx runs fn inside a transaction on the pinned session: commit when
// fn returns nil, rollback when it returns an error or panics. This is the
// one place transaction control lives; mappers issue statements in the
// right order but never commit.
//
// A nested call joins the transaction already in progress, so a service
// operation can compose others without starting a second transaction; the
// outermost call owns the commit.
func (s *Session) WithinTx(ctx context.Context, fn func(context.Context) error) error {
	if s.tx != nil {
		return fn(ctx)
	}
	conn, err := s.pin(ctx)
	if err != nil {
		return err
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("begin failed")
		return err
	}
	s.tx = tx
	defer func() {
		s.tx = nil
		if p := recover(); p != nil {
			if err := tx.Rollback(); err != nil {
				s.log.Error().Err(err).Msg("rollback after panic failed")
			}
			panic(p)
		}
	}()

	if err := fn(ctx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error().Err(rbErr).Msg("rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		s.log.Error().Err(err).Msg("commit failed")
		return err
	}
	return nil
}

// InTx reports whether a transaction is currently open on the session.
func (s *Session) InTx() bool { return s.tx != nil }

// Close rolls back any transaction left open, releases the pinned
// connection and closes the pool. Called once at shutdown.
func (s *Session) Close() error {
	if s.tx != nil {
		if err := s.tx.Rollback(); err != nil {
			s.log.Error().Err(err).Msg("rollback on close failed")
		}
		s.tx = nil
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.log.Error().Err(err).Msg("releasing connection failed")
		}
		s.conn = nil
	}
	return s.db.Close()
}
