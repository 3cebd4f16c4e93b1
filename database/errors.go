package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"bestai/archive"
)

// classify maps driver errors to archive error kinds. Errors that mean the
// database file or connection is gone are StoreUnavailable; the rest are
// failures of the query itself.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return archive.StoreUnavailable(op, err)
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_BUSY:
			return archive.StoreUnavailable(op, err)
		}
	}
	if err.Error() == "sql: database is closed" {
		return archive.StoreUnavailable(op, err)
	}
	return archive.QueryFailed(op, err)
}
