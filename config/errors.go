package config

import "github.com/pkg/errors"

var (
	// ErrConfigNotFound is returned when a model document cannot be opened.
	ErrConfigNotFound = errors.New("collision model not found")
	// ErrConfigParse is returned when a model document is not well-formed.
	ErrConfigParse = errors.New("collision model is malformed")
)
