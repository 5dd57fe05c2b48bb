package config

import "errors"

var (
	// ErrUnknownKey is returned when an override names a path the schema does not declare.
	ErrUnknownKey = errors.New("unknown config key")
	// ErrTypeMismatch is returned when an override value disagrees with the schema type.
	ErrTypeMismatch = errors.New("config type mismatch")
	// ErrImmutable is returned for any write after Freeze.
	ErrImmutable = errors.New("config is frozen")
	// ErrSyntax is returned for malformed files and override lists.
	ErrSyntax = errors.New("malformed config")
	// ErrInvalidValue is returned by Freeze when a value is outside its domain.
	ErrInvalidValue = errors.New("invalid config value")
)
