package errx

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// WrapPostgres maps pgx errors to AppError. Missing rows become 404 and
// unique constraint violations 409.
func WrapPostgres(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return New(err, http.StatusNotFound, NotFoundMessage)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return New(err, http.StatusConflict, "record already exists")
	}

	return New(err, http.StatusInternalServerError, PostgresErrorMessage)
}
