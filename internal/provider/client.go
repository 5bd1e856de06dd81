package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ganot/appforge/internal/domain/credential"
	"github.com/ganot/appforge/internal/domain/generation"
	"golang.org/x/time/rate"
)

// Client calls the provider APIs directly with the key carried by each
// request.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	models     Models
	maxTokens  int
	endpoints  Endpoints
	logger     *slog.Logger
}

// NewClient creates a direct provider client.
func NewClient(opts Options) *Client {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Client{
		httpClient: opts.httpClient(),
		limiter:    opts.limiter(),
		models:     opts.Models,
		maxTokens:  maxTokens,
		endpoints:  DefaultEndpoints,
		logger:     opts.logger(),
	}
}

// WithEndpoints overrides the API URLs.
func (c *Client) WithEndpoints(e Endpoints) *Client {
	c.endpoints = e
	return c
}

// Chat sends one user message and returns the model's text.
func (c *Client) Chat(ctx context.Context, req generation.ChatRequest) (generation.ChatResponse, error) {
	text, err := c.complete(ctx, req.Provider, req.APIKey, chatSystemPrompt, req.Message)
	if err != nil {
		return generation.ChatResponse{}, err
	}
	return generation.ChatResponse{Response: text}, nil
}

// GenerateCode asks the model for a JSON object with the generation fields.
func (c *Client) GenerateCode(ctx context.Context, req generation.CodeRequest) (generation.CodeResponse, error) {
	text, err := c.complete(ctx, req.Provider, req.APIKey, codeSystemPromptFor(req.Language), codeUserPrompt(req))
	if err != nil {
		return generation.CodeResponse{}, err
	}
	return parseCodeResponse(text), nil
}

func (c *Client) complete(ctx context.Context, p credential.Provider, apiKey, system, user string) (string, error) {
	if err := wait(ctx, c.limiter); err != nil {
		return "", err
	}

	model := c.models.forProvider(p)
	c.logger.Debug("provider request", "provider", p, "model", model)

	switch p {
	case credential.ProviderOpenAI:
		return c.chatCompletion(ctx, c.endpoints.OpenAI, apiKey, model, system, user)
	case credential.ProviderGrok:
		return c.chatCompletion(ctx, c.endpoints.Grok, apiKey, model, system, user)
	case credential.ProviderAnthropic:
		return c.messages(ctx, apiKey, model, system, user)
	default:
		return "", fmt.Errorf("%w: %q", credential.ErrUnknownProvider, p)
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionRequest is the OpenAI chat-completions body. Grok accepts
// the same shape.
type chatCompletionRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *Client) chatCompletion(ctx context.Context, url, apiKey, model, system, user string) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := readBody(resp)
	if err != nil {
		return "", err
	}

	var apiResp chatCompletionResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(apiResp.Choices) == 0 || apiResp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return apiResp.Choices[0].Message.Content, nil
}

type messagesRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (c *Client) messages(ctx context.Context, apiKey, model, system, user string) (string, error) {
	body, err := json.Marshal(messagesRequest{
		Model:     model,
		MaxTokens: c.maxTokens,
		System:    system,
		Messages:  []chatMessage{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.Anthropic, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := readBody(resp)
	if err != nil {
		return "", err
	}

	var apiResp messagesResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	var text string
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("%w (stop_reason: %s)", ErrEmptyResponse, apiResp.StopReason)
	}
	return text, nil
}
