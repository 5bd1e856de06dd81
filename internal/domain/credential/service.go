// Package credential is the device-local vault of provider keys.
package credential

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/appforge/internal/repository"
)

// Service stores at most one key per provider.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new credential vault.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger}
}

// Set stores key for provider, replacing any previous value.
func (s *Service) Set(ctx context.Context, provider Provider, key string) error {
	if _, err := ParseProvider(string(provider)); err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrInvalidInput
	}

	if err := s.repo.Put(ctx, Entry{Provider: provider, Key: key, UpdatedAt: time.Now()}); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}
	s.logger.Info("credential stored", "provider", provider)
	return nil
}

// Get returns the key for provider. A missing key is reported through ok,
// not as an error.
func (s *Service) Get(ctx context.Context, provider Provider) (key string, ok bool, err error) {
	entry, err := s.repo.Get(ctx, provider)
	if errors.Is(err, repository.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting credential: %w", err)
	}
	return entry.Key, true, nil
}

// Has reports whether a key is stored for provider.
func (s *Service) Has(ctx context.Context, provider Provider) (bool, error) {
	_, ok, err := s.Get(ctx, provider)
	return ok, err
}

// Statuses reports presence for every supported provider.
func (s *Service) Statuses(ctx context.Context) ([]Status, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing credentials: %w", err)
	}
	byProvider := make(map[Provider]Entry, len(entries))
	for _, e := range entries {
		byProvider[e.Provider] = e
	}

	out := make([]Status, 0, len(Providers))
	for _, p := range Providers {
		st := Status{Provider: p}
		if e, ok := byProvider[p]; ok {
			updated := e.UpdatedAt
			st.Present = true
			st.Masked = Mask(e.Key)
			st.UpdatedAt = &updated
		}
		out = append(out, st)
	}
	return out, nil
}
