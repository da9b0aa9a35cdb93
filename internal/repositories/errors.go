package repositories

import (
	"errors"

	"gorm.io/gorm"

	"orderdesk/internal/apperror"
)

// translate maps GORM errors onto application errors. notFound is used when
// the record is missing and may be nil when a lookup cannot miss.
func translate(err error, notFound *apperror.Error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound) && notFound != nil:
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperror.ErrAlreadyExists.Wrap(err)
	default:
		return apperror.Internal("failed to "+op, err)
	}
}
