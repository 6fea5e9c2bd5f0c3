package mapper

import (
	"errors"
	"fmt"
)

// ErrNotFound is the sentinel every NotFoundError unwraps to, so callers can
// test with errors.Is without caring which entity was missing.
var ErrNotFound = errors.New("entity not found")

// ErrNilEntity is returned when a write operation is handed a nil entity.
var ErrNilEntity = errors.New("nil entity")

// ErrNoID is returned when an operation requires a persisted entity but the
// identifier is still zero.
var ErrNoID = errors.New("entity has no identifier")

// ErrUnsavedReference is returned when an entity is persisted while one of
// the entities it references has no identifier yet.
var ErrUnsavedReference = errors.New("referenced entity has no identifier")

// errNoRowsAffected marks an insert that reported zero affected rows.
var errNoRowsAffected = errors.New("no rows affected")

// NotFoundError reports a lookup that matched no row. It carries the entity
// type name and the identifier that was requested so callers can report the
// miss without re-running the query.
type NotFoundError struct {
	Entity string
	ID     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// OperationError wraps a driver-level failure with the operation that caused
// it ("CREATE Restaurant", "DELETE Grade", ...) so logs and monitoring can
// attribute failures to an exact operation and entity type.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *OperationError) Unwrap() error { return e.Err }

func notFound(entity string, id int) error { return &NotFoundError{Entity: entity, ID: id} }

func opError(op string, err error) error { return &OperationError{Op: op, Err: err} }
