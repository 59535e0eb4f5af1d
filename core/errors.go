package core

import "github.com/pkg/errors"

var (
	// ErrProtected is returned when deleting a record that is still referenced by other records.
	ErrProtected = errors.New("cannot delete: record is referenced by other records")
	// ErrInvalidReference is returned when writing a record that references a missing record.
	ErrInvalidReference = errors.New("referenced record does not exist")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// FieldErrors returns the field errors keyed by field name.
func (err ValidationError) FieldErrors() map[string]string {
	fldErrs := make(map[string]string, len(err.Fields))
	for _, fErr := range err.Fields {
		fldErrs[fErr.Field] = fErr.Error
	}
	return fldErrs
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

// IsProtected reports whether err was caused by a refused delete.
func IsProtected(err error) bool {
	return errors.Cause(err) == ErrProtected
}
