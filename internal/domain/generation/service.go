// Package generation drives a single generation request end to end.
package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ganot/appforge/internal/domain/history"
	"github.com/ganot/appforge/internal/extract"
)

// Service is the generation orchestrator.
type Service struct {
	vault  Vault
	chat   ChatCollaborator
	code   CodeCollaborator
	ledger Ledger
	logger *slog.Logger
}

// NewService creates a new generation service.
func NewService(
	vault Vault,
	chat ChatCollaborator,
	code CodeCollaborator,
	ledger Ledger,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		vault:  vault,
		chat:   chat,
		code:   code,
		ledger: ledger,
		logger: logger,
	}
}

// Call checks the credential, calls the collaborator and normalises the
// response. It writes nothing.
func (s *Service) Call(ctx context.Context, req Request) (Outcome, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Outcome{}, ErrInvalidInput
	}
	if req.Mode == "" {
		req.Mode = ModeGenerate
	}

	key, ok, err := s.vault.Get(ctx, req.Provider)
	if err != nil {
		return Outcome{}, fmt.Errorf("reading credential: %w", err)
	}
	if !ok {
		return Outcome{}, &Error{Cause: CauseMissingCredential, Provider: req.Provider}
	}

	message := Compose(req.Context, req.Prompt)

	switch req.Mode {
	case ModeChat:
		resp, err := s.chat.Chat(ctx, ChatRequest{Provider: req.Provider, Message: message, APIKey: key})
		if err != nil {
			return Outcome{}, &Error{Cause: CauseCollaboratorFailure, Provider: req.Provider, Err: err}
		}
		code, _ := extract.ExtractCode(resp.Response)
		return Outcome{
			Mode:        ModeChat,
			Code:        code,
			Explanation: resp.Response,
			Text:        resp.Response,
		}, nil

	case ModeGenerate:
		resp, err := s.code.GenerateCode(ctx, CodeRequest{
			Provider: req.Provider,
			APIKey:   key,
			Prompt:   message,
			Language: req.Language,
		})
		if err != nil {
			return Outcome{}, &Error{Cause: CauseCollaboratorFailure, Provider: req.Provider, Err: err}
		}
		return Outcome{
			Mode:              ModeGenerate,
			Code:              extract.CodeOrRaw(resp.Code),
			SetupInstructions: resp.SetupInstructions,
			Explanation:       resp.Explanation,
			Text:              resp.Explanation,
		}, nil

	default:
		return Outcome{}, ErrInvalidInput
	}
}

// Submit runs Call and, when code came back, writes it to the ticket's
// project and appends it to history. A stale ticket skips the project write
// but still records history. The two stores are written one after the other:
// if the history append fails the project keeps the new code and Submit
// returns the append error.
func (s *Service) Submit(ctx context.Context, writer ProjectWriter, req Request) (Outcome, error) {
	outcome, err := s.Call(ctx, req)
	if err != nil {
		var genErr *Error
		if errors.As(err, &genErr) {
			s.logger.Info("generation failed", "cause", genErr.Cause, "provider", req.Provider, "project_id", req.Ticket.ProjectID)
		}
		return Outcome{}, err
	}
	if outcome.Code == "" {
		s.logger.Debug("no code in response, nothing to write", "project_id", req.Ticket.ProjectID)
		return outcome, nil
	}

	if req.Ticket.HasProject() && writer != nil {
		proj, err := writer.Apply(ctx, req.Ticket, outcome.Patch(req))
		switch {
		case errors.Is(err, ErrStaleResponse):
			s.logger.Info("stale response discarded", "project_id", req.Ticket.ProjectID, "epoch", req.Ticket.Epoch)
			outcome.Discarded = true
		case err != nil:
			return Outcome{}, fmt.Errorf("writing project: %w", err)
		default:
			outcome.Project = proj
		}
	}

	entry, err := s.ledger.Append(ctx, history.Draft{
		Language:          req.Language,
		Prompt:            req.Prompt,
		Code:              outcome.Code,
		SetupInstructions: outcome.SetupInstructions,
		Explanation:       outcome.Explanation,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("recording history: %w", err)
	}
	outcome.History = &entry
	return outcome, nil
}
