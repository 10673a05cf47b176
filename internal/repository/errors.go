package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// pgUniqueViolation is the PostgreSQL error code for a unique
// constraint violation.
const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a uniqueness-constraint
// violation. The constraint is the final arbiter for races on the
// one-owner and one-pending-invitation invariants; callers translate
// this to a domain conflict.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	// SQLite is used by the test suites.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsUniqueViolationOn reports whether err violates one specific unique
// index, for tables carrying more than one. PostgreSQL names the
// constraint on the error; SQLite only names the column list, so
// callers pass both.
func IsUniqueViolationOn(err error, index, columns string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == index
	}
	return strings.HasSuffix(err.Error(), "UNIQUE constraint failed: "+columns)
}
