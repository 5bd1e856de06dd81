package mcp

import (
	"fmt"

	"github.com/ganot/appforge/internal/transport"
)

// toolError is what a failed tool call reports. The SDK turns it into a
// result with isError set and the message as text.
type toolError struct {
	*transport.APIError
}

func (e toolError) Error() string {
	if e.RecoveryHint == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
}

// mapError maps domain errors to the codes shared with the REST API.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	return toolError{transport.MapError(err)}
}
