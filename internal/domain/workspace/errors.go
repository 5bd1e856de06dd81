package workspace

import "errors"

var (
	// ErrNoActiveProject indicates an operation that needs an open project.
	ErrNoActiveProject = errors.New("no active project")
	// ErrNothingToDeploy indicates the workspace has no code yet.
	ErrNothingToDeploy = errors.New("no code to deploy")
	// ErrWorkspaceNotFound indicates an unknown workspace id.
	ErrWorkspaceNotFound = errors.New("workspace not found")
)
