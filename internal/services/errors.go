package services

import (
	"errors"
	"fmt"

	"github.com/saifelleuhci/kanouwood2/internal/repositories"
)

var (
	// ErrInvalidInput indicates the caller supplied data that failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates the write collides with an existing record.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized indicates the credentials were missing, wrong or revoked.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates a valid identity that may not use the admin panel.
	ErrForbidden = errors.New("forbidden")
	// ErrUnavailable indicates a backing service is down or not configured.
	ErrUnavailable = errors.New("unavailable")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// translateRepositoryError maps repository classifications onto service
// sentinels while keeping the original error in the chain.
func translateRepositoryError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case repositories.IsNotFound(err):
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	case repositories.IsConflict(err):
		return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
	case repositories.IsUnavailable(err):
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
