package mocks

import (
	"context"

	"github.com/ganot/appforge/internal/domain/activity"
	"github.com/ganot/appforge/internal/domain/credential"
	"github.com/ganot/appforge/internal/domain/history"
	"github.com/ganot/appforge/internal/domain/project"
	"github.com/ganot/appforge/internal/identity"
	"github.com/stretchr/testify/mock"
)

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, owner identity.OwnerID, proj *project.Project) error {
	args := m.Called(ctx, owner, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, owner identity.OwnerID, id string) (*project.Project, error) {
	args := m.Called(ctx, owner, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context, owner identity.OwnerID) ([]project.Project, error) {
	args := m.Called(ctx, owner)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Update(ctx context.Context, owner identity.OwnerID, proj *project.Project, expectedVersion int64) error {
	args := m.Called(ctx, owner, proj, expectedVersion)
	return args.Error(0)
}

func (m *ProjectRepository) Delete(ctx context.Context, owner identity.OwnerID, id string) error {
	args := m.Called(ctx, owner, id)
	return args.Error(0)
}

// CredentialRepository is a mock for credential.Repository.
type CredentialRepository struct {
	mock.Mock
}

func (m *CredentialRepository) Put(ctx context.Context, entry credential.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *CredentialRepository) Get(ctx context.Context, provider credential.Provider) (*credential.Entry, error) {
	args := m.Called(ctx, provider)
	if entry, ok := args.Get(0).(*credential.Entry); ok {
		return entry, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CredentialRepository) List(ctx context.Context) ([]credential.Entry, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]credential.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// HistoryRepository is a mock for history.Repository.
type HistoryRepository struct {
	mock.Mock
}

func (m *HistoryRepository) Prepend(ctx context.Context, entry history.Entry, limit int) error {
	args := m.Called(ctx, entry, limit)
	return args.Error(0)
}

func (m *HistoryRepository) List(ctx context.Context) ([]history.Entry, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]history.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *HistoryRepository) Get(ctx context.Context, id string) (*history.Entry, error) {
	args := m.Called(ctx, id)
	if entry, ok := args.Get(0).(*history.Entry); ok {
		return entry, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, owner identity.OwnerID, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, owner, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, owner identity.OwnerID, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, owner, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
