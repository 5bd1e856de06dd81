package activity

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	ProjectID    string
	WorkspaceID  *string
	ActivityType *ActivityType
	Limit        int
	Offset       int
}
