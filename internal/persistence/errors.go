package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrForeignKeyViolation is returned when a write references a missing row
	// or a delete would orphan dependent rows.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
	// ErrConstraintViolation is returned when a CHECK constraint rejects a write.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrTxConflict is returned when a transaction lost a concurrency race
	// (SQLITE_BUSY, serialization failure, deadlock). The whole unit may be retried.
	ErrTxConflict = errors.New("persistence: transaction conflict")
	// ErrReadOnly is returned when a write is attempted inside a read-only unit.
	ErrReadOnly = errors.New("persistence: read-only transaction")
)
