package activity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ganot/appforge/internal/domain/activity"
	"github.com/ganot/appforge/internal/identity"
	"github.com/ganot/appforge/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestActivityService_LogAndList(t *testing.T) {
	ctx := context.Background()
	owner := identity.NewOwnerID("dev@example.com")

	repo := &mocks.ActivityRepository{}
	entry := &activity.ActivityEntry{
		ProjectID:    "proj1",
		ActivityType: activity.TypeCodeGenerated,
		Summary:      "generated",
		Version:      2,
	}

	repo.On("Log", ctx, owner, entry).Return(nil)
	repo.On("List", ctx, owner, activity.ListActivityOptions{ProjectID: "proj1"}).Return([]activity.ActivityEntry{}, nil)

	svc := activity.NewService(repo, nil)
	require.NoError(t, svc.LogActivity(ctx, owner, entry))
	require.False(t, entry.CreatedAt.IsZero())
	_, err := svc.GetRecentActivity(ctx, owner, activity.ListActivityOptions{ProjectID: "proj1"})
	require.NoError(t, err)
}

func TestActivityService_RecordSwallowsErrors(t *testing.T) {
	ctx := context.Background()
	owner := identity.NewOwnerID("dev@example.com")

	repo := &mocks.ActivityRepository{}
	repo.On("Log", ctx, owner, mock.Anything).Return(errors.New("disk full"))

	svc := activity.NewService(repo, nil)
	svc.Record(ctx, owner, &activity.ActivityEntry{ActivityType: activity.TypeDeployed, Summary: "x"})
	svc.Record(ctx, identity.OwnerID{}, &activity.ActivityEntry{ActivityType: activity.TypeDeployed})
	repo.AssertNumberOfCalls(t, "Log", 1)

	var nilSvc *activity.Service
	nilSvc.Record(ctx, owner, &activity.ActivityEntry{})
}

func TestActivityService_RejectsAnonymous(t *testing.T) {
	svc := activity.NewService(&mocks.ActivityRepository{}, nil)
	err := svc.LogActivity(context.Background(), identity.OwnerID{}, &activity.ActivityEntry{})
	require.ErrorIs(t, err, activity.ErrInvalidInput)
}
