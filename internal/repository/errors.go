// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow the service layer to tell
// constraint violations apart from missing rows without inspecting driver
// errors itself.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers the repositories translate.
const (
	mysqlDuplicateEntry = 1062
	mysqlNoReferenced   = 1452
	mysqlCheckViolated  = 3819
)

var (
	// ErrDuplicate is returned when an insert hits a unique constraint.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrForeignKey is returned when a referenced row (user or movie) is missing.
	ErrForeignKey = errors.New("referenced row missing")
	// ErrCheck is returned when a CHECK constraint rejects a value.
	ErrCheck = errors.New("check constraint violated")

	ErrUserNotFound   = errors.New("user not found")
	ErrMovieNotFound  = errors.New("movie not found")
	ErrReviewNotFound = errors.New("review not found")
)

// classify maps MySQL constraint errors onto the sentinels above and leaves
// everything else untouched.
func classify(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return err
	}
	switch me.Number {
	case mysqlDuplicateEntry:
		return ErrDuplicate
	case mysqlNoReferenced:
		return ErrForeignKey
	case mysqlCheckViolated:
		return ErrCheck
	}
	return err
}
