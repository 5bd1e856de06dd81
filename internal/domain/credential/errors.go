package credential

import "errors"

var (
	// ErrUnknownProvider indicates a provider outside the supported set.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrInvalidInput indicates an empty key.
	ErrInvalidInput = errors.New("invalid credential input")
)
