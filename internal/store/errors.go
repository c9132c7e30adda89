package store

import (
	"errors"
	"fmt"

	"github.com/ncruces/go-sqlite3"
)

// Errors returned by store operations.
//
// Check them with errors.Is:
//
//	if errors.Is(err, store.ErrNotFound) {
//	    // no such course or class
//	}
var (
	// ErrStorageUnavailable is returned by Open when the database file
	// cannot be created, opened or initialised.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNotFound is returned when a lookup or update by id matches no row.
	ErrNotFound = errors.New("not found")

	// ErrConstraintViolation is returned when a write would break a
	// foreign key or uniqueness constraint.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrWeekdayMismatch is returned when a class session's date does not
	// fall on its course's day of week. It wraps ErrConstraintViolation.
	ErrWeekdayMismatch = fmt.Errorf("%w: class date does not fall on the course's day of week", ErrConstraintViolation)
)

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConstraint reports whether err is a rejected write.
func IsConstraint(err error) bool {
	return errors.Is(err, ErrConstraintViolation)
}

// mapWriteError converts SQLite constraint failures into ErrConstraintViolation.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sqlite3.CONSTRAINT) {
		return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
	}
	return err
}
