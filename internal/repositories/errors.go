package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrStreamConsumed    = errors.New("stream already consumed")
	ErrBatchNotInitiated = errors.New("batch is not in the initiated state")
)

// SQLState returns the Postgres error code carried by err, or "" when err did not come from the server.
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
