package workspace

import (
	"context"

	"github.com/ganot/appforge/internal/deploy"
	"github.com/ganot/appforge/internal/domain/activity"
	"github.com/ganot/appforge/internal/domain/generation"
	"github.com/ganot/appforge/internal/domain/history"
	"github.com/ganot/appforge/internal/domain/project"
	"github.com/ganot/appforge/internal/identity"
)

// ProjectStore resolves and updates the active project.
type ProjectStore interface {
	Resolve(ctx context.Context, owner identity.OwnerID, id string) (*project.Project, error)
	Update(ctx context.Context, owner identity.OwnerID, id string, patch project.Patch) (*project.Project, error)
}

// HistoryReader looks up ledger entries for selection.
type HistoryReader interface {
	Get(ctx context.Context, id string) (*history.Entry, error)
}

// Generator runs generation requests.
type Generator interface {
	Call(ctx context.Context, req generation.Request) (generation.Outcome, error)
	Submit(ctx context.Context, writer generation.ProjectWriter, req generation.Request) (generation.Outcome, error)
}

// ActivityRecorder logs workspace events, best effort.
type ActivityRecorder interface {
	Record(ctx context.Context, owner identity.OwnerID, entry *activity.ActivityEntry)
}

// Dependencies are shared by every coordinator.
type Dependencies struct {
	Projects   ProjectStore
	History    HistoryReader
	Generator  Generator
	Deployer   deploy.Deployer
	Activities ActivityRecorder
}
