// package repositories provides the persistence layer for the review graph.
//
// Each repository wraps the shared *sql.DB. Uniqueness invariants (one
// catalog entity per (title, artist) pair, one review per (author, target)
// pair, one follow per edge) are enforced by the SQLite schema; the
// repositories translate constraint violations into the domain error
// taxonomy.
package repositories

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// isUniqueViolation reports whether err is a SQLite uniqueness or primary
// key constraint failure. The unique indexes are the source of truth for
// all dedupe decisions; application-level existence checks are only an
// optimization.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
