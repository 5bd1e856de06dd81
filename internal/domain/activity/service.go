// Package activity records what happened in each owner's workspaces.
package activity

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ganot/appforge/internal/identity"
)

// Service handles activity log operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger}
}

// LogActivity logs an activity entry with the current timestamp if missing.
func (s *Service) LogActivity(ctx context.Context, owner identity.OwnerID, entry *ActivityEntry) error {
	if entry == nil || owner.IsZero() {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.repo.Log(ctx, owner, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// Record logs an entry and only reports failures to the logger.
func (s *Service) Record(ctx context.Context, owner identity.OwnerID, entry *ActivityEntry) {
	if s == nil || entry == nil || owner.IsZero() {
		return
	}
	if err := s.LogActivity(ctx, owner, entry); err != nil {
		s.logger.Warn("activity not recorded", "type", entry.ActivityType, "error", err)
	}
}

// GetRecentActivity lists activity entries with filtering.
func (s *Service) GetRecentActivity(ctx context.Context, owner identity.OwnerID, opts ListActivityOptions) ([]ActivityEntry, error) {
	if owner.IsZero() {
		return []ActivityEntry{}, nil
	}
	return s.repo.List(ctx, owner, opts)
}
