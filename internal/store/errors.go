/**
 * @description
 * GORM-backed implementations of the engine's collaborator stores.
 * Every database failure leaving this package is classified against the
 * services error taxonomy so handlers can map it to a status code.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/jackc/pgx/v5/pgconn: Postgres error codes
 */

package store

import (
	"errors"
	"fmt"

	"github.com/groceryscout/backend/internal/services"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgCheckViolation      = "23514"
	pgForeignKeyViolation = "23503"
)

// classify maps a gorm/pgx error onto the services taxonomy. notFound is returned
// for gorm.ErrRecordNotFound.
func classify(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) && notFound != nil {
		return fmt.Errorf("%s: %w", op, notFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCheckViolation:
			return fmt.Errorf("%s: %w", op, services.ErrInvalidPrice)
		case pgForeignKeyViolation:
			if notFound != nil {
				return fmt.Errorf("%s: %w", op, notFound)
			}
		}
	}

	return fmt.Errorf("%w: %s: %v", services.ErrUpstreamUnavailable, op, err)
}
