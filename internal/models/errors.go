package models

import (
	"errors"
	"strings"
)

// ValidationError describes input rejected before it reaches storage.
type ValidationError struct {
	Field  string
	Reason string
	err    error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.err }

// prefixed qualifies a nested field path, e.g. "creator" + "name" -> "creator.name".
func prefixed(prefix string, err error) error {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	sep := "."
	if strings.HasPrefix(ve.Field, "[") {
		sep = ""
	}
	return &ValidationError{Field: prefix + sep + ve.Field, Reason: ve.Reason, err: ve.err}
}
