package library

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrDuplicateKey is returned when an ISBN or email is already registered.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotFound is returned when a book, member or open loan does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable is returned when every copy of a book is on loan.
	ErrUnavailable = errors.New("no copies available")

	// ErrInvalidInput is returned for empty required fields and non-positive counts.
	ErrInvalidInput = errors.New("invalid input")
)

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
