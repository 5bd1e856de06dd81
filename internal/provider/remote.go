package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ganot/appforge/internal/domain/generation"
	"golang.org/x/time/rate"
)

// Remote forwards requests to a backend that owns the provider calls.
type Remote struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewRemote creates a client for the backend at baseURL.
func NewRemote(baseURL string, opts Options) *Remote {
	return &Remote{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: opts.httpClient(),
		limiter:    opts.limiter(),
		logger:     opts.logger(),
	}
}

// Chat posts {provider, message, api_key} to /chat.
func (r *Remote) Chat(ctx context.Context, req generation.ChatRequest) (generation.ChatResponse, error) {
	var out generation.ChatResponse
	if err := r.post(ctx, "/chat", req, &out); err != nil {
		return generation.ChatResponse{}, err
	}
	return out, nil
}

// GenerateCode posts {api_key, prompt, language} to /generate-code.
func (r *Remote) GenerateCode(ctx context.Context, req generation.CodeRequest) (generation.CodeResponse, error) {
	var out generation.CodeResponse
	if err := r.post(ctx, "/generate-code", req, &out); err != nil {
		return generation.CodeResponse{}, err
	}
	return out, nil
}

func (r *Remote) post(ctx context.Context, path string, in, out any) error {
	if err := wait(ctx, r.limiter); err != nil {
		return err
	}

	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	r.logger.Debug("remote provider request", "path", path)
	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("remote %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := readBody(resp)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("remote %s decode: %w", path, err)
	}
	return nil
}
