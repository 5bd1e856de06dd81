package history

import "errors"

// ErrEntryNotFound indicates the history entry doesn't exist (it may have
// been evicted).
var ErrEntryNotFound = errors.New("history entry not found")
