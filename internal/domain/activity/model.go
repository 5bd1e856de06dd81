package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeProjectCreated    ActivityType = "project_created"
	TypeProjectDeleted    ActivityType = "project_deleted"
	TypeProjectOpened     ActivityType = "project_opened"
	TypeCodeGenerated     ActivityType = "code_generated"
	TypeChatCodeApplied   ActivityType = "chat_code_applied"
	TypeResponseDiscarded ActivityType = "response_discarded"
	TypeHistorySelected   ActivityType = "history_selected"
	TypeDeployed          ActivityType = "deployed"
	TypeConflictDetected  ActivityType = "conflict_detected"
)

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	Owner        string       `json:"owner"`
	ProjectID    string       `json:"project_id,omitempty"`
	WorkspaceID  *string      `json:"workspace_id,omitempty"`
	HistoryID    *string      `json:"history_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
	Version      int64        `json:"version"`
}
