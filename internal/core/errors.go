package core

import (
	"errors"
	"fmt"
)

// ValidationError is a client-side, user-correctable problem found before submit.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IndexError is returned when a line-item index is out of range.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("item index %d out of range [0, %d)", e.Index, e.Len)
}

var (
	ErrSupplierRequired = &ValidationError{Field: "supplier", Message: "supplier required"}
	ErrItemsRequired    = &ValidationError{Field: "items", Message: "at least one item required"}

	// ErrSubmitInProgress is returned when Submit is called while a previous
	// submit of the same draft has not returned yet.
	ErrSubmitInProgress = errors.New("submit already in progress")
)

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
