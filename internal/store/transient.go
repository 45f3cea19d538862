package store

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

// IsTransient reports whether a storage error is worth one retry:
// connection failures, serialization failures and deadlocks. Constraint
// violations and anything shaped by request data are permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, io.EOF) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"57P03", // cannot_connect_now
			"53300": // too_many_connections
			return true
		}
		// Class 08: connection exceptions.
		if len(pgErr.Code) == 5 && pgErr.Code[:2] == "08" {
			return true
		}
	}
	return false
}
