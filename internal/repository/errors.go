package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/joseph-ayodele/refcue/internal/common"
)

// postgres unique_violation
const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err was raised by a UNIQUE or PRIMARY KEY
// constraint in either supported driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
		return strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}

func storageErr(op string, err error) error {
	if isUniqueViolation(err) {
		return common.NewAppError("CONFLICT", op, fmt.Errorf("%w: %w", common.ErrConflict, err))
	}
	return common.NewAppError("STORAGE_ERROR", op, fmt.Errorf("%w: %w", common.ErrStorage, err))
}

func notFoundOr(err error, op, what string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.NotFoundErrorf("%s %v not found", what, id)
	}
	return storageErr(op, err)
}
