// Package redisstore keeps the history ledger in Redis.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ganot/appforge/internal/domain/history"
	"github.com/ganot/appforge/internal/repository"
	"github.com/redis/go-redis/v9"
)

// DefaultHistoryKey is the list holding the ledger, newest first.
const DefaultHistoryKey = "appforge:history"

// HistoryRepository implements history.Repository on a Redis list.
type HistoryRepository struct {
	client *redis.Client
	key    string
}

var _ history.Repository = (*HistoryRepository)(nil)

// NewHistoryRepository creates a repository on key. An empty key uses
// DefaultHistoryKey.
func NewHistoryRepository(client *redis.Client, key string) *HistoryRepository {
	if key == "" {
		key = DefaultHistoryKey
	}
	return &HistoryRepository{client: client, key: key}
}

// Prepend pushes entry to the head and trims the list to limit in one
// MULTI/EXEC.
func (r *HistoryRepository) Prepend(ctx context.Context, entry history.Entry, limit int) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, r.key, data)
		if limit > 0 {
			pipe.LTrim(ctx, r.key, 0, int64(limit-1))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to prepend history entry: %w", err)
	}
	return nil
}

// List returns the ledger newest first.
func (r *HistoryRepository) List(ctx context.Context) ([]history.Entry, error) {
	raw, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	entries := make([]history.Entry, 0, len(raw))
	for _, item := range raw {
		var e history.Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Get scans the bounded list for id.
func (r *HistoryRepository) Get(ctx context.Context, id string) (*history.Entry, error) {
	entries, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], nil
		}
	}
	return nil, repository.ErrNotFound
}
