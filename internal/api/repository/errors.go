package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// uniqueViolation reports whether err is a UNIQUE constraint failure and
// returns the violated constraint (or column list) as reported by the driver.
func uniqueViolation(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgUniqueViolation {
			return pgErr.ConstraintName, true
		}
		return "", false
	}

	// SQLite: "UNIQUE constraint failed: users.username (2067)"
	const marker = "UNIQUE constraint failed"
	msg := err.Error()
	idx := strings.Index(msg, marker)
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(msg[idx+len(marker):], ":")), true
}
