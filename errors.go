package pubgen

import "errors"

var (
	// ErrInvalidRecord is returned for documents without a title or content.
	ErrInvalidRecord = errors.New("invalid record: title and content are required")
	// ErrRender wraps markdown and page rendering failures.
	ErrRender = errors.New("render failed")
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigInvalid  = errors.New("invalid config")
)
