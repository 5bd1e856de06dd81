// Package provider holds the AI collaborators: direct clients for the
// OpenAI, Anthropic and Grok APIs, and a client for a remote backend that
// exposes /chat and /generate-code.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ganot/appforge/internal/domain/generation"
	"golang.org/x/time/rate"
)

// Collaborator is both generation collaborator shapes.
type Collaborator interface {
	generation.ChatCollaborator
	generation.CodeCollaborator
}

var (
	_ Collaborator = (*Client)(nil)
	_ Collaborator = (*Remote)(nil)
)

// ErrEmptyResponse indicates the model answered with no text.
var ErrEmptyResponse = errors.New("model returned no content")

// StatusError is a non-2xx answer from a provider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// Options configures the clients.
type Options struct {
	HTTPClient        *http.Client
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxTokens         int
	Models            Models
	Logger            *slog.Logger
}

// New returns a Remote client when baseURL is set and a direct Client
// otherwise.
func New(baseURL string, opts Options) Collaborator {
	if baseURL != "" {
		return NewRemote(baseURL, opts)
	}
	return NewClient(opts)
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func (o Options) limiter() *rate.Limiter {
	if o.RequestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := o.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(o.RequestsPerSecond), burst)
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func wait(ctx context.Context, limiter *rate.Limiter) error {
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}
