package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"taskboard/internal/repository"
)

var (
	ErrBadArguments  = errors.New("bad arguments")
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// translate maps storage errors onto the service sentinels. Unknown errors
// pass through unchanged.
func translate(err error, what string) error {
	var missing *repository.MissingReferenceError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s %w", what, ErrNotFound)
	case errors.As(err, &missing):
		return fmt.Errorf("%w: %s", ErrBadArguments, missing.Error())
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %s refers to a missing record", ErrBadArguments, what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s %w", what, ErrAlreadyExists)
	default:
		return err
	}
}

func badArgs(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadArguments, fmt.Sprintf(format, args...))
}
