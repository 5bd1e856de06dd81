package generation_test

import (
	"context"
	"sync"

	"github.com/ganot/appforge/internal/domain/credential"
	"github.com/ganot/appforge/internal/domain/generation"
	"github.com/ganot/appforge/internal/domain/history"
	"github.com/ganot/appforge/internal/domain/project"
)

type mapVault map[credential.Provider]string

func (v mapVault) Get(_ context.Context, p credential.Provider) (string, bool, error) {
	key, ok := v[p]
	return key, ok, nil
}

type stubCollaborator struct {
	mu        sync.Mutex
	chatResp  generation.ChatResponse
	codeResp  generation.CodeResponse
	err       error
	chatCalls []generation.ChatRequest
	codeCalls []generation.CodeRequest
}

func (s *stubCollaborator) Chat(_ context.Context, req generation.ChatRequest) (generation.ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatCalls = append(s.chatCalls, req)
	return s.chatResp, s.err
}

func (s *stubCollaborator) GenerateCode(_ context.Context, req generation.CodeRequest) (generation.CodeResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codeCalls = append(s.codeCalls, req)
	return s.codeResp, s.err
}

func (s *stubCollaborator) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chatCalls) + len(s.codeCalls)
}

type recordingLedger struct {
	err     error
	entries []history.Draft
}

func (l *recordingLedger) Append(_ context.Context, d history.Draft) (history.Entry, error) {
	if l.err != nil {
		return history.Entry{}, l.err
	}
	l.entries = append(l.entries, d)
	return history.Entry{ID: "h1", Code: d.Code, Prompt: d.Prompt}, nil
}

type recordingWriter struct {
	stale   bool
	patches []project.Patch
}

func (w *recordingWriter) Apply(_ context.Context, t generation.Ticket, p project.Patch) (*project.Project, error) {
	if w.stale {
		return nil, generation.ErrStaleResponse
	}
	w.patches = append(w.patches, p)
	return &project.Project{ID: t.ProjectID, Code: *p.Code, Version: 2}, nil
}
