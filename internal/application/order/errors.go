package order

import (
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/marketplace/internal/application"
	dombalance "github.com/Zhima-Mochi/marketplace/internal/domain/balance"
	dominventory "github.com/Zhima-Mochi/marketplace/internal/domain/inventory"
	domain "github.com/Zhima-Mochi/marketplace/internal/domain/order"
)

var (
	ErrNotFound          = application.ErrNotFound
	ErrInvalidTransition = application.ErrInvalidTransition
	ErrValidation        = application.ErrValidation
	ErrForbidden         = application.ErrForbidden
	ErrConflict          = application.ErrConflict
	ErrRepository        = application.ErrRepository
)

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case isClassified(err):
		return err
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, dominventory.ErrNotFound),
		errors.Is(err, dombalance.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, domain.ErrConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
	case errors.Is(err, dominventory.ErrInvalidQuantity),
		errors.Is(err, dombalance.ErrInvalidAmount):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	default:
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
}

func isClassified(err error) bool {
	for _, target := range []error{ErrNotFound, ErrInvalidTransition, ErrValidation, ErrForbidden, ErrConflict, ErrRepository} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func newValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
