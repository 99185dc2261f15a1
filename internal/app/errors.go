package app

import "errors"

// Sentinel errors for common application errors
var (
	ErrNoProfile       = errors.New("no profile found. Run: coldreach profile init")
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)
