package project

import "errors"

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
	// ErrNoIdentity indicates a write was attempted without a signed-in owner.
	ErrNoIdentity = errors.New("no signed-in identity")
	// ErrConflict indicates the project changed since it was read.
	ErrConflict = errors.New("project modified concurrently")
)
