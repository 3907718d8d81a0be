package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig matches every validation and decoding failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// FieldError describes one invalid setting.
type FieldError struct {
	// Field is the dotted setting path, e.g. "align.pad".
	Field string
	// Value is the rejected value.
	Value any
	// Message describes the failure.
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("config: %s = %v: %s", e.Field, e.Value, e.Message)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidConfig
}
