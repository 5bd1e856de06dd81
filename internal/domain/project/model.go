package project

import "time"

// Language is the project type chosen in the generation form.
type Language string

const (
	LanguageNone      Language = ""
	LanguageWeb3      Language = "web3"
	LanguageAI        Language = "ai"
	LanguageFullstack Language = "fullstack"
)

// Valid reports whether l is one of the known project types.
func (l Language) Valid() bool {
	switch l {
	case LanguageNone, LanguageWeb3, LanguageAI, LanguageFullstack:
		return true
	}
	return false
}

// Message is one chat entry. Order of insertion is display order.
type Message struct {
	Content   string    `json:"content"`
	IsUser    bool      `json:"is_user"`
	Timestamp time.Time `json:"timestamp"`
}

// Project is a user's saved application. Version increases on every write
// and is used for optimistic concurrency.
type Project struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Language          Language  `json:"language"`
	Code              string    `json:"code"`
	Prompt            string    `json:"prompt"`
	SetupInstructions string    `json:"setup_instructions,omitempty"`
	Explanation       string    `json:"explanation,omitempty"`
	ChatHistory       []Message `json:"chat_history"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	Version           int64     `json:"version"`
}

// Clone returns a deep copy.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	cp := *p
	cp.ChatHistory = append([]Message(nil), p.ChatHistory...)
	return &cp
}

// ProjectSummary is a lightweight representation for listing.
type ProjectSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Language     Language  `json:"language"`
	HasCode      bool      `json:"has_code"`
	MessageCount int       `json:"message_count"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summary condenses p for listings.
func (p *Project) Summary() ProjectSummary {
	return ProjectSummary{
		ID:           p.ID,
		Name:         p.Name,
		Language:     p.Language,
		HasCode:      p.Code != "",
		MessageCount: len(p.ChatHistory),
		Version:      p.Version,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// Patch is a partial update. Nil fields are left unchanged; AppendMessages
// are added to the end of the chat history.
type Patch struct {
	Name              *string
	Language          *Language
	Code              *string
	Prompt            *string
	SetupInstructions *string
	Explanation       *string
	AppendMessages    []Message
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Language == nil && p.Code == nil && p.Prompt == nil &&
		p.SetupInstructions == nil && p.Explanation == nil && len(p.AppendMessages) == 0
}
