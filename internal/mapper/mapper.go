// Package mapper implements the data-mapper persistence layer: one mapper
// per table sharing a generic identity-map base, and the Guide orchestrator
// for operations that span several tables.
//
// Transaction discipline is uniform: mappers issue statements in the order
// foreign keys require but never commit or roll back; the caller wraps one
// or more mapper calls in database.Session.WithinTx.
package mapper

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog"

	"github.com/guideresto/guideresto/internal/database"
)

// Entity is anything with a surrogate integer identifier. A zero identifier
// marks a transient entity that has not been persisted yet.
type Entity interface {
	EntityID() int
}

// lastInsertIDQuery retrieves the identifier generated by the insert that
// just ran. LAST_INSERT_ID is scoped to the database session, which is why
// the whole layer runs on one pinned connection: the read is only defined
// when it follows its insert on the same session.
const lastInsertIDQuery = "SELECT LAST_INSERT_ID()"

// base carries what every entity mapper shares: the session, the identity
// map and the generic helpers. T is the pointer type of one entity, e.g.
// *model.City.
//
// The identity map guarantees at most one in-memory instance per persisted
// identifier: once cached, FindByID returns the same pointer on every call
// until the entity is deleted or the cache is reset. The map is a plain
// map with no locking; the layer is single-session, single-threaded.
type base[T Entity] struct {
	entity  string // entity type name used in errors and logs
	session *database.Session
	log     zerolog.Logger
	cache   map[int]T

	fromDB      func(ctx context.Context, id int) (T, error) // uncached load, set by the concrete mapper
	existsQuery string
	countQuery  string
}

func newBase[T Entity](entity string, session *database.Session, log zerolog.Logger) base[T] {
	return base[T]{
		entity:  entity,
		session: session,
		log:     log.With().Str("mapper", entity).Logger(),
		cache:   make(map[int]T),
	}
}

// FindByID returns the cached instance when present, without touching the
// database; otherwise it loads the row, caches the result and returns it.
// A missing row surfaces as a NotFoundError.
func (b *base[T]) FindByID(ctx context.Context, id int) (T, error) {
	if cached, ok := b.cache[id]; ok {
		b.log.Debug().Int("id", id).Msg("identity map hit")
		return cached, nil
	}
	var zero T
	loaded, err := b.fromDB(ctx, id)
	if err != nil {
		return zero, err
	}
	b.cache[id] = loaded
	return loaded, nil
}

// store adds or refreshes a cache entry. Transient entities are ignored.
func (b *base[T]) store(e T) {
	if id := e.EntityID(); id > 0 {
		b.cache[id] = e
	}
}

// evict drops one identifier from the identity map. The object itself is
// left alone; callers holding a reference must discard it.
func (b *base[T]) evict(id int) { delete(b.cache, id) }

// ResetCache empties the identity map. Subsequent reads reload from the
// database. Mainly useful in tests and when rows change underneath the
// application.
func (b *base[T]) ResetCache() { clear(b.cache) }

// CachedCount reports how many entities the identity map currently holds.
func (b *base[T]) CachedCount() int { return len(b.cache) }

// Exists checks for a row with the given identifier. The check always hits
// the database and never materializes an entity.
func (b *base[T]) Exists(ctx context.Context, id int) (bool, error) {
	op := "EXISTS " + b.entity
	ex, err := b.session.Executor(ctx)
	if err != nil {
		return false, opError(op, err)
	}
	var one int
	err = ex.QueryRowContext(ctx, b.existsQuery, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		b.log.Error().Err(err).Int("id", id).Msg("exists check failed")
		return false, opError(op, err)
	}
	return true, nil
}

// Count returns the number of rows in the mapper's table, bypassing the
// cache.
func (b *base[T]) Count(ctx context.Context) (int, error) {
	op := "COUNT " + b.entity
	ex, err := b.session.Executor(ctx)
	if err != nil {
		return 0, opError(op, err)
	}
	var n int
	if err := ex.QueryRowContext(ctx, b.countQuery).Scan(&n); err != nil {
		b.log.Error().Err(err).Msg("count failed")
		return 0, opError(op, err)
	}
	return n, nil
}

// generatedID fetches the identifier produced by the insert that just ran on
// this session. It must run before any other insert advances the counter;
// the single-session design and the call sites guarantee that.
func (b *base[T]) generatedID(ctx context.Context) (int, error) {
	op := "SEQUENCE " + b.entity
	ex, err := b.session.Executor(ctx)
	if err != nil {
		return 0, opError(op, err)
	}
	var id int
	if err := ex.QueryRowContext(ctx, lastInsertIDQuery).Scan(&id); err != nil {
		b.log.Error().Err(err).Msg("generated id fetch failed")
		return 0, opError(op, err)
	}
	return id, nil
}

// exec runs a write statement and returns the number of affected rows,
// wrapping driver failures with the operation name.
func (b *base[T]) exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	ex, err := b.session.Executor(ctx)
	if err != nil {
		return 0, opError(op, err)
	}
	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		b.log.Error().Err(err).Str("op", op).Msg("statement failed")
		return 0, opError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, opError(op, err)
	}
	return n, nil
}
