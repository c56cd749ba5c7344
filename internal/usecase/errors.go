package usecase

import (
	"errors"
	"fmt"

	"github.com/wichananm65/pet-shop-checkout/internal/apperr"
	"github.com/wichananm65/pet-shop-checkout/internal/domain/repository"
)

// notFoundOr maps repository.ErrNotFound to a client-facing NotFound and
// wraps anything else as an internal failure.
func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(format, args...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// noActiveCartOr does the same for the OPEN cart lookup.
func noActiveCartOr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.ErrNoActiveCart
	}
	return fmt.Errorf("load open cart: %w", err)
}
