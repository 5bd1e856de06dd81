package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ganot/appforge/internal/domain/project"
	"github.com/ganot/appforge/internal/identity"
	"github.com/ganot/appforge/internal/repository"
	"github.com/stretchr/testify/require"
)

var testOwner = identity.NewOwnerID("dev@example.com")

func newTestProject(id, name string, created time.Time) *project.Project {
	return &project.Project{
		ID:          id,
		Name:        name,
		ChatHistory: []project.Message{},
		CreatedAt:   created,
		UpdatedAt:   created,
		Version:     1,
	}
}

func TestProjectRepository_CreateGet(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	proj := newTestProject("p1", "demo", now)
	proj.Language = project.LanguageWeb3
	proj.ChatHistory = []project.Message{{Content: "hello", IsUser: true, Timestamp: now}}

	require.NoError(t, repo.Create(ctx, testOwner, proj))

	retrieved, err := repo.Get(ctx, testOwner, "p1")
	require.NoError(t, err)
	require.Equal(t, "demo", retrieved.Name)
	require.Equal(t, project.LanguageWeb3, retrieved.Language)
	require.Equal(t, int64(1), retrieved.Version)
	require.True(t, now.Equal(retrieved.CreatedAt))
	require.Len(t, retrieved.ChatHistory, 1)
	require.True(t, retrieved.ChatHistory[0].IsUser)
}

func TestProjectRepository_DuplicateID(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testOwner, newTestProject("p1", "a", time.Now())))
	err := repo.Create(ctx, identity.NewOwnerID("other@example.com"), newTestProject("p1", "b", time.Now()))
	require.ErrorIs(t, err, repository.ErrConflict)
}

func TestProjectRepository_OwnerIsolation(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()
	other := identity.NewOwnerID("other@example.com")

	require.NoError(t, repo.Create(ctx, testOwner, newTestProject("p1", "mine", time.Now())))

	_, err := repo.Get(ctx, other, "p1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	list, err := repo.List(ctx, other)
	require.NoError(t, err)
	require.Empty(t, list)

	require.ErrorIs(t, repo.Delete(ctx, other, "p1"), repository.ErrNotFound)
}

func TestProjectRepository_ListCreationOrder(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	base := time.Now()
	require.NoError(t, repo.Create(ctx, testOwner, newTestProject("b", "first", base)))
	require.NoError(t, repo.Create(ctx, testOwner, newTestProject("a", "second", base.Add(time.Second))))
	require.NoError(t, repo.Create(ctx, testOwner, newTestProject("c", "third", base.Add(2*time.Second))))

	// Updating the oldest project must not move it to the end.
	first, err := repo.Get(ctx, testOwner, "b")
	require.NoError(t, err)
	first.Code = "x"
	first.Version = 2
	first.UpdatedAt = base.Add(time.Hour)
	require.NoError(t, repo.Update(ctx, testOwner, first, 1))

	list, err := repo.List(ctx, testOwner)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, []string{"first", "second", "third"}, []string{list[0].Name, list[1].Name, list[2].Name})
	require.Equal(t, "x", list[0].Code)
}

func TestProjectRepository_UpdateVersionCheck(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	proj := newTestProject("p1", "demo", time.Now())
	require.NoError(t, repo.Create(ctx, testOwner, proj))

	next := proj.Clone()
	next.Code = "v2"
	next.Version = 2
	require.NoError(t, repo.Update(ctx, testOwner, next, 1))

	stale := proj.Clone()
	stale.Code = "lost"
	stale.Version = 2
	require.ErrorIs(t, repo.Update(ctx, testOwner, stale, 1), repository.ErrConflict)

	missing := newTestProject("nope", "x", time.Now())
	require.ErrorIs(t, repo.Update(ctx, testOwner, missing, 1), repository.ErrNotFound)

	got, err := repo.Get(ctx, testOwner, "p1")
	require.NoError(t, err)
	require.Equal(t, "v2", got.Code)
	require.Equal(t, int64(2), got.Version)
}

func TestProjectRepository_UpdateAppendsMessages(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	now := time.Now()
	proj := newTestProject("p1", "demo", now)
	require.NoError(t, repo.Create(ctx, testOwner, proj))

	next := proj.Clone()
	next.ChatHistory = append(next.ChatHistory,
		project.Message{Content: "q", IsUser: true, Timestamp: now},
		project.Message{Content: "a", IsUser: false, Timestamp: now},
	)
	next.Version = 2
	require.NoError(t, repo.Update(ctx, testOwner, next, 1))

	again := next.Clone()
	again.ChatHistory = append(again.ChatHistory, project.Message{Content: "q2", IsUser: true, Timestamp: now})
	again.Version = 3
	require.NoError(t, repo.Update(ctx, testOwner, again, 2))

	got, err := repo.Get(ctx, testOwner, "p1")
	require.NoError(t, err)
	require.Len(t, got.ChatHistory, 3)
	require.Equal(t, "q", got.ChatHistory[0].Content)
	require.Equal(t, "a", got.ChatHistory[1].Content)
	require.Equal(t, "q2", got.ChatHistory[2].Content)

	list, err := repo.List(ctx, testOwner)
	require.NoError(t, err)
	require.Len(t, list[0].ChatHistory, 3)
}

func TestProjectRepository_Delete(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	proj := newTestProject("p1", "demo", time.Now())
	proj.ChatHistory = []project.Message{{Content: "hi", IsUser: true, Timestamp: time.Now()}}
	require.NoError(t, repo.Create(ctx, testOwner, proj))

	require.NoError(t, repo.Delete(ctx, testOwner, "p1"))
	_, err := repo.Get(ctx, testOwner, "p1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	var orphaned int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM project_messages`).Scan(&orphaned))
	require.Zero(t, orphaned)

	require.ErrorIs(t, repo.Delete(ctx, testOwner, "p1"), repository.ErrNotFound)
}

func TestProjectService_CreateIDsAreDistinct(t *testing.T) {
	db := NewTestDB(t)
	svc := project.NewService(NewProjectRepository(db), nil)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		proj, err := svc.Create(ctx, testOwner, project.CreateRequest{Name: fmt.Sprintf("p%d", i)})
		require.NoError(t, err)
		require.False(t, seen[proj.ID], "duplicate id %s", proj.ID)
		seen[proj.ID] = true
	}
	require.Len(t, seen, 200)
}

func TestProjectService_ResolveIsIdempotent(t *testing.T) {
	db := NewTestDB(t)
	svc := project.NewService(NewProjectRepository(db), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, testOwner, project.CreateRequest{Name: "demo", Language: project.LanguageAI})
	require.NoError(t, err)
	code := "print(1)"
	_, err = svc.Update(ctx, testOwner, created.ID, project.Patch{
		Code:           &code,
		AppendMessages: []project.Message{{Content: "hi", IsUser: true, Timestamp: time.Now().UTC()}},
	})
	require.NoError(t, err)

	first, err := svc.Resolve(ctx, testOwner, created.ID)
	require.NoError(t, err)
	second, err := svc.Resolve(ctx, testOwner, created.ID)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
