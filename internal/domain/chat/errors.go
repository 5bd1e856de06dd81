package chat

import "errors"

var (
	// ErrEmptyMessage indicates blank input.
	ErrEmptyMessage = errors.New("empty chat message")
	// ErrUnbound indicates the session has no project to write to.
	ErrUnbound = errors.New("chat session has no project")
)
