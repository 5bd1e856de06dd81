// Package project stores identity-scoped projects.
package project

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/appforge/internal/identity"
	"github.com/ganot/appforge/internal/repository"
	"github.com/google/uuid"
)

// Service handles project operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new project service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	Name     string
	Language Language
}

// Create creates a new, empty project.
func (s *Service) Create(ctx context.Context, owner identity.OwnerID, req CreateRequest) (*Project, error) {
	if owner.IsZero() {
		return nil, ErrNoIdentity
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || !req.Language.Valid() {
		return nil, ErrInvalidInput
	}

	now := s.now()
	proj := &Project{
		ID:          uuid.NewString(),
		Name:        name,
		Language:    req.Language,
		ChatHistory: []Message{},
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}

	if err := s.repo.Create(ctx, owner, proj); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	s.logger.Info("project created", "project_id", proj.ID)
	return proj, nil
}

// Resolve fetches a project by ID. A missing project is ErrProjectNotFound.
func (s *Service) Resolve(ctx context.Context, owner identity.OwnerID, id string) (*Project, error) {
	if owner.IsZero() || strings.TrimSpace(id) == "" {
		return nil, ErrProjectNotFound
	}
	proj, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// List returns the owner's projects in creation order.
func (s *Service) List(ctx context.Context, owner identity.OwnerID) ([]Project, error) {
	if owner.IsZero() {
		return []Project{}, nil
	}
	projects, err := s.repo.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	if projects == nil {
		projects = []Project{}
	}
	return projects, nil
}

// Update merges patch into the project. A missing project is not an error:
// Update returns nil, nil. If another writer got in between the read and the
// write, the patch is re-applied once on a fresh read before giving up with
// ErrConflict.
func (s *Service) Update(ctx context.Context, owner identity.OwnerID, id string, patch Patch) (*Project, error) {
	if owner.IsZero() {
		return nil, ErrNoIdentity
	}

	for attempt := 0; attempt < 2; attempt++ {
		current, err := s.repo.Get(ctx, owner, id)
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug("update skipped, project missing", "project_id", id)
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("getting project: %w", err)
		}

		updated, err := s.write(ctx, owner, current, patch)
		if errors.Is(err, ErrConflict) {
			s.logger.Warn("project update conflict, retrying", "project_id", id, "attempt", attempt+1)
			continue
		}
		if errors.Is(err, ErrProjectNotFound) {
			return nil, nil
		}
		return updated, err
	}
	return nil, ErrConflict
}

// UpdateIfVersion applies patch only if the stored version equals version.
func (s *Service) UpdateIfVersion(ctx context.Context, owner identity.OwnerID, id string, version int64, patch Patch) (*Project, error) {
	if owner.IsZero() {
		return nil, ErrNoIdentity
	}
	current, err := s.Resolve(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if current.Version != version {
		return nil, ErrConflict
	}
	return s.write(ctx, owner, current, patch)
}

// Delete removes the project. Deleting a missing project is not an error.
func (s *Service) Delete(ctx context.Context, owner identity.OwnerID, id string) error {
	if owner.IsZero() {
		return ErrNoIdentity
	}
	err := s.repo.Delete(ctx, owner, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("deleting project: %w", err)
	}
	s.logger.Info("project deleted", "project_id", id)
	return nil
}

func (s *Service) write(ctx context.Context, owner identity.OwnerID, current *Project, patch Patch) (*Project, error) {
	updated, err := s.apply(current, patch)
	if err != nil {
		return nil, err
	}

	err = s.repo.Update(ctx, owner, updated, current.Version)
	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, repository.ErrConflict):
		return nil, ErrConflict
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrProjectNotFound
	default:
		return nil, fmt.Errorf("updating project: %w", err)
	}
}

func (s *Service) apply(current *Project, patch Patch) (*Project, error) {
	next := current.Clone()

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, ErrInvalidInput
		}
		next.Name = name
	}
	if patch.Language != nil {
		if !patch.Language.Valid() {
			return nil, ErrInvalidInput
		}
		next.Language = *patch.Language
	}
	if patch.Code != nil {
		next.Code = *patch.Code
	}
	if patch.Prompt != nil {
		next.Prompt = *patch.Prompt
	}
	if patch.SetupInstructions != nil {
		next.SetupInstructions = *patch.SetupInstructions
	}
	if patch.Explanation != nil {
		next.Explanation = *patch.Explanation
	}
	next.ChatHistory = append(next.ChatHistory, patch.AppendMessages...)

	now := s.now()
	if now.After(current.UpdatedAt) {
		next.UpdatedAt = now
	}
	next.Version = current.Version + 1
	return next, nil
}
