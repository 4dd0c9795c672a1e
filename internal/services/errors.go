package services

import (
	"errors"
	"fmt"

	"pintlog-backend-go/internal/store"
)

type ServiceError struct {
	Status  int
	Message string
}

func (e ServiceError) Error() string {
	return e.Message
}

// ErrInvalidRecordFormat is returned when the store hands back a record
// whose date or time is not ISO formatted.
var ErrInvalidRecordFormat = errors.New("invalid record format")

func ErrNotFound(msg string) error {
	return ServiceError{Status: 404, Message: msg}
}

func ErrBadRequest(msg string) error {
	return ServiceError{Status: 400, Message: msg}
}

func ErrForbidden(msg string) error {
	return ServiceError{Status: 403, Message: msg}
}

func ErrUnauthorized(msg string) error {
	return ServiceError{Status: 401, Message: msg}
}

func ErrUnavailable(msg string) error {
	return ServiceError{Status: 503, Message: msg}
}

func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// storeError maps store sentinels to service errors. notFound is the message
// used when the store reports a missing row.
func storeError(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound(notFound)
	case errors.Is(err, store.ErrInvalid):
		return ErrBadRequest("Counts cannot be negative")
	case errors.Is(err, store.ErrUnavailable):
		return ErrUnavailable("Storage unavailable")
	default:
		return err
	}
}
