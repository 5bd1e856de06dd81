// Package history is the bounded, device-global ledger of generation results.
package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ganot/appforge/internal/repository"
	"github.com/google/uuid"
)

// Service appends to and reads the ledger.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new history ledger.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Append finalizes draft with a fresh id and timestamp and stores it as the
// newest entry.
func (s *Service) Append(ctx context.Context, draft Draft) (Entry, error) {
	entry := Entry{
		ID:                uuid.NewString(),
		Language:          draft.Language,
		Prompt:            draft.Prompt,
		Code:              draft.Code,
		Timestamp:         s.now(),
		SetupInstructions: draft.SetupInstructions,
		Explanation:       draft.Explanation,
	}
	if err := s.repo.Prepend(ctx, entry, MaxEntries); err != nil {
		return Entry{}, fmt.Errorf("appending history: %w", err)
	}
	s.logger.Debug("history appended", "entry_id", entry.ID)
	return entry, nil
}

// List returns a snapshot of the ledger, newest first.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Get returns a single entry. Selection never mutates the ledger.
func (s *Service) Get(ctx context.Context, id string) (*Entry, error) {
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("getting history entry: %w", err)
	}
	return entry, nil
}
