package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolationCode = "23505"

	constraintUserEmail      = "users_email_key"
	constraintDefaultAddress = "addresses_one_default_per_type"
)

// uniqueViolation reports whether err is a unique constraint violation and
// names the violated constraint.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return pgErr.ConstraintName, true
	}
	return "", false
}
