package services

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/repository"
)

// storeFailure classifies a gateway error. conflict is the message used when
// the store rejected a duplicate unique field.
func storeFailure(err error, conflict string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.Wrap(apperr.Conflict, conflict, err)
	case errors.Is(err, repository.ErrUnavailable):
		return apperr.Wrap(apperr.StoreUnavailable, "Database unavailable", err)
	}
	return apperr.Wrap(apperr.InternalError, "Unexpected store failure", err)
}
