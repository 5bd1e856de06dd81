package activity

import "errors"

// ErrInvalidInput indicates a missing entry or owner.
var ErrInvalidInput = errors.New("invalid activity input")
