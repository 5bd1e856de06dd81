package redisstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ganot/appforge/internal/domain/history"
	"github.com/ganot/appforge/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*HistoryRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewHistoryRepository(client, ""), mr
}

func TestHistoryRepository_PrependAndList(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, repo.Prepend(ctx, history.Entry{ID: "a", Prompt: "first", Code: "1", Timestamp: now}, history.MaxEntries))
	require.NoError(t, repo.Prepend(ctx, history.Entry{ID: "b", Prompt: "second", Code: "2", Timestamp: now.Add(time.Second)}, history.MaxEntries))

	entries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "b", entries[0].ID)
	require.Equal(t, "a", entries[1].ID)
	require.True(t, entries[1].Timestamp.Equal(now))
}

func TestHistoryRepository_Bounded(t *testing.T) {
	ctx := context.Background()
	repo, mr := newTestRepo(t)

	for i := 0; i < history.MaxEntries+7; i++ {
		require.NoError(t, repo.Prepend(ctx, history.Entry{ID: fmt.Sprintf("e%d", i)}, history.MaxEntries))
	}

	entries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, history.MaxEntries)
	require.Equal(t, fmt.Sprintf("e%d", history.MaxEntries+6), entries[0].ID)
	require.Equal(t, "e7", entries[len(entries)-1].ID)

	stored, err := mr.List(DefaultHistoryKey)
	require.NoError(t, err)
	require.Len(t, stored, history.MaxEntries)
}

func TestHistoryRepository_Get(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	require.NoError(t, repo.Prepend(ctx, history.Entry{ID: "x", Code: "c"}, history.MaxEntries))

	got, err := repo.Get(ctx, "x")
	require.NoError(t, err)
	require.Equal(t, "c", got.Code)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestHistoryRepository_EmptyList(t *testing.T) {
	repo, _ := newTestRepo(t)
	entries, err := repo.List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)
}

func TestHistoryService_OnRedis(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	svc := history.NewService(repo, nil)

	entry, err := svc.Append(ctx, history.Draft{Prompt: "sort an array", Code: "function sort(){}"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, "function sort(){}", got.Code)
}

func TestHistoryRepository_ConnectionError(t *testing.T) {
	repo, mr := newTestRepo(t)
	mr.Close()
	err := repo.Prepend(context.Background(), history.Entry{ID: "x"}, history.MaxEntries)
	require.Error(t, err)
}
