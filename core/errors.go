package core

import (
	"fmt"

	"github.com/pkg/errors"
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
		return ""
	}
	if len(err.Fields) == 0 {
		return err.Err.Error()
	}
	msg := err.Err.Error() + ":"
	for _, fld := range err.Fields {
		msg += fmt.Sprintf(" %s: %s;", fld.Field, fld.Error)
	}
	return msg[:len(msg)-1]
}

// ShapeError reports an upstream document node that has neither the single-object
// nor the collection shape expected at Path.
type ShapeError struct {
	Path string
	Got  string
}

func NewShapeError(path string, v interface{}) error {
	return &ShapeError{Path: path, Got: fmt.Sprintf("%T", v)}
}

func (err ShapeError) Error() string {
	return fmt.Sprintf("unexpected document shape at %s: %s", err.Path, err.Got)
}

func IsShapeError(err error) bool {
	_, ok := errors.Cause(err).(*ShapeError)
	return ok
}
