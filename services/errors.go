package services

import (
	"context"
	"errors"
	"fmt"

	"order-bot/store"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrNoActiveFlow is returned for free text when the actor has no flow in progress.
	ErrNoActiveFlow = errors.New("no active flow")
)

// storeErr maps a store error onto the service taxonomy and prefixes op.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, store.ErrEmptyCart):
		return fmt.Errorf("%s: %w", op, ErrEmptyCart)
	case errors.Is(err, store.ErrConstraint):
		return fmt.Errorf("%s: %w: %v", op, ErrConstraintViolation, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func notFound(what string, id int64) error {
	return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
}

// IsTransient reports whether err is worth retrying by the caller: timeouts,
// serialization failures, deadlocks and dropped connections.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return true
		}
		return len(pgErr.Code) == 5 && pgErr.Code[:2] == "08"
	}
	return pgconn.SafeToRetry(err)
}

// SafeToRetry reports whether err is transient and the failed call is known
// not to have committed: the statement never reached the server, or the
// transaction was rolled back. A timeout or dropped connection after sending
// leaves the outcome unknown, so writes that are not idempotent must not be
// replayed on IsTransient alone.
func SafeToRetry(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return pgconn.SafeToRetry(err)
}

func requireOrganizer(op string, actorOK bool) error {
	if !actorOK {
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}
	return nil
}
