// Package service provides business logic services for the City Guide directory.
package service

import (
	"errors"
	"fmt"

	"github.com/prn-tf/cityguide/internal/domain"
)

// isDomainError reports whether err is an expected business outcome rather
// than an infrastructure failure.
func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrValidation,
		domain.ErrListingNotFound,
		domain.ErrUserNotFound,
		domain.ErrUserAlreadyExists,
		domain.ErrInvalidCredentials,
		domain.ErrNotAuthenticated,
		domain.ErrNotAuthorized,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// internalError marks err as a store failure unless it already is one.
func internalError(err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
