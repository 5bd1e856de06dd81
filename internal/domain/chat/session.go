// Package chat is the per-project message log. Assistant messages that carry
// a fenced code block update the bound project's code through the same
// writer the generation path uses.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ganot/appforge/internal/domain/credential"
	"github.com/ganot/appforge/internal/domain/generation"
	"github.com/ganot/appforge/internal/domain/project"
	"github.com/ganot/appforge/internal/extract"
)

// Caller runs a generation request without writing anything.
type Caller interface {
	Call(ctx context.Context, req generation.Request) (generation.Outcome, error)
}

// Reply is the result of one exchange.
type Reply struct {
	User      project.Message  `json:"user"`
	Assistant project.Message  `json:"assistant"`
	Code      string           `json:"code,omitempty"`
	Project   *project.Project `json:"project,omitempty"`
	Discarded bool             `json:"discarded"`
}

// Session is bound to one project for the lifetime of an activation.
type Session struct {
	mu       sync.Mutex
	ticket   generation.Ticket
	messages []project.Message
	caller   Caller
	writer   generation.ProjectWriter
	logger   *slog.Logger
	now      func() time.Time
}

// NewSession binds a session to the ticket's project, starting from the
// project's stored history.
func NewSession(
	ticket generation.Ticket,
	stored []project.Message,
	caller Caller,
	writer generation.ProjectWriter,
	logger *slog.Logger,
) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		ticket:   ticket,
		messages: append([]project.Message(nil), stored...),
		caller:   caller,
		writer:   writer,
		logger:   logger.With("project_id", ticket.ProjectID),
		now:      time.Now,
	}
}

// ProjectID returns the bound project.
func (s *Session) ProjectID() string { return s.ticket.ProjectID }

// Messages returns a copy of the log in insertion order.
func (s *Session) Messages() []project.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]project.Message{}, s.messages...)
}

// AppendUserMessage stores a user message.
func (s *Session) AppendUserMessage(ctx context.Context, content string) (project.Message, error) {
	if strings.TrimSpace(content) == "" {
		return project.Message{}, ErrEmptyMessage
	}
	msg := project.Message{Content: content, IsUser: true, Timestamp: s.now()}
	if _, err := s.commit(ctx, project.Patch{AppendMessages: []project.Message{msg}}); err != nil {
		return project.Message{}, err
	}
	return msg, nil
}

// AppendAssistantMessage stores an assistant message. If content carries a
// fenced code block, the first one becomes the project's code in the same
// write.
func (s *Session) AppendAssistantMessage(ctx context.Context, content string) (project.Message, string, error) {
	msg := project.Message{Content: content, IsUser: false, Timestamp: s.now()}
	patch := project.Patch{AppendMessages: []project.Message{msg}}
	code, found := extract.ExtractCode(content)
	if found {
		patch.Code = &code
	}
	if _, err := s.commit(ctx, patch); err != nil {
		return project.Message{}, "", err
	}
	return msg, code, nil
}

// Send asks the chat collaborator about input. The displayed user message is
// input itself; lc only enriches what the provider sees. Both messages and
// any extracted code are written together once the provider answers, so a
// failed call leaves the project untouched.
func (s *Session) Send(ctx context.Context, provider credential.Provider, input string, lc *generation.LanguageContext) (Reply, error) {
	if strings.TrimSpace(input) == "" {
		return Reply{}, ErrEmptyMessage
	}
	if !s.ticket.HasProject() {
		return Reply{}, ErrUnbound
	}

	user := project.Message{Content: input, IsUser: true, Timestamp: s.now()}

	outcome, err := s.caller.Call(ctx, generation.Request{
		Ticket:   s.ticket,
		Mode:     generation.ModeChat,
		Provider: provider,
		Prompt:   input,
		Context:  lc,
	})
	if err != nil {
		return Reply{}, err
	}

	assistant := project.Message{Content: outcome.Text, IsUser: false, Timestamp: s.now()}
	patch := project.Patch{AppendMessages: []project.Message{user, assistant}}
	if outcome.Code != "" {
		code := outcome.Code
		patch.Code = &code
	}

	reply := Reply{User: user, Assistant: assistant, Code: outcome.Code}
	proj, err := s.commit(ctx, patch)
	if errors.Is(err, generation.ErrStaleResponse) {
		s.logger.Info("stale chat response discarded", "epoch", s.ticket.Epoch)
		reply.Discarded = true
		return reply, nil
	}
	if err != nil {
		return Reply{}, err
	}
	reply.Project = proj
	return reply, nil
}

func (s *Session) commit(ctx context.Context, patch project.Patch) (*project.Project, error) {
	if !s.ticket.HasProject() {
		return nil, ErrUnbound
	}
	proj, err := s.writer.Apply(ctx, s.ticket, patch)
	if err != nil {
		if errors.Is(err, generation.ErrStaleResponse) {
			return nil, err
		}
		return nil, fmt.Errorf("writing chat: %w", err)
	}

	s.mu.Lock()
	s.messages = append(s.messages, patch.AppendMessages...)
	s.mu.Unlock()
	return proj, nil
}
