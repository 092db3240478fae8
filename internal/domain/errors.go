package domain

import (
	"errors"
	"strings"
)

var ErrMalformedEnvelope = errors.New("malformed envelope")

const (
	ClassMalformedEnvelope = "malformed_envelope"
	ClassValidation        = "validation"
	ClassStorage           = "storage"
	ClassUnknown           = "unknown"
)

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// StorageError is returned when the durable write of an order fails.
// Throttling and permanent failures are reported the same way.
type StorageError struct {
	OrderID string
	Err     error
}

func (e *StorageError) Error() string {
	return "storing order " + e.OrderID + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Classify maps an error from the ingestion path onto one of the Class*
// labels.
func Classify(err error) string {
	var (
		validErr   *ValidationError
		storageErr *StorageError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedEnvelope):
		return ClassMalformedEnvelope
	case errors.As(err, &validErr):
		return ClassValidation
	case errors.As(err, &storageErr):
		return ClassStorage
	default:
		return ClassUnknown
	}
}
