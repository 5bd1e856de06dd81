package history

import "time"

// MaxEntries bounds the ledger. Older entries are dropped on append.
const MaxEntries = 50

// Entry is one past generation result.
type Entry struct {
	ID                string    `json:"id"`
	Language          string    `json:"language"`
	Prompt            string    `json:"prompt"`
	Code              string    `json:"code"`
	Timestamp         time.Time `json:"timestamp"`
	SetupInstructions string    `json:"setup_instructions,omitempty"`
	Explanation       string    `json:"explanation,omitempty"`
}

// Draft is an entry before the ledger assigns its id and timestamp.
type Draft struct {
	Language          string
	Prompt            string
	Code              string
	SetupInstructions string
	Explanation       string
}
