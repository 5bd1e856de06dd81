// Package deploy publishes generated code to hosting platforms.
package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrDeployFailed indicates the platform rejected the deployment or
	// could not be reached.
	ErrDeployFailed = errors.New("deployment failed")
	// ErrUnsupportedPlatform indicates a platform other than netlify or vercel.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrInvalidInput indicates a missing site name, token or code.
	ErrInvalidInput = errors.New("invalid deploy input")
)

// Platform is a hosting target.
type Platform string

const (
	PlatformNetlify Platform = "netlify"
	PlatformVercel  Platform = "vercel"
)

const (
	netlifyAPIURL = "https://api.netlify.com/api/v1"
	vercelAPIURL  = "https://api.vercel.com"
)

// Request describes one deployment.
type Request struct {
	Platform Platform
	SiteName string
	Code     string
	Token    string
}

// Result is a successful deployment.
type Result struct {
	Platform Platform `json:"platform"`
	URL      string   `json:"url"`
	Message  string   `json:"message"`
}

// Deployer publishes code and returns its live URL.
type Deployer interface {
	Deploy(ctx context.Context, req Request) (Result, error)
}

// Client deploys to Netlify and Vercel over their REST APIs.
type Client struct {
	httpClient *http.Client
	netlifyURL string
	vercelURL  string
}

// NewClient creates a deploy client. A nil httpClient gets a 60s timeout.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{httpClient: httpClient, netlifyURL: netlifyAPIURL, vercelURL: vercelAPIURL}
}

// WithBaseURLs points the client at alternative API hosts.
func (c *Client) WithBaseURLs(netlifyURL, vercelURL string) *Client {
	c.netlifyURL = strings.TrimRight(netlifyURL, "/")
	c.vercelURL = strings.TrimRight(vercelURL, "/")
	return c
}

// Deploy implements Deployer.
func (c *Client) Deploy(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.SiteName) == "" || req.Token == "" || req.Code == "" {
		return Result{}, ErrInvalidInput
	}

	switch req.Platform {
	case PlatformNetlify:
		return c.deployNetlify(ctx, req)
	case PlatformVercel:
		return c.deployVercel(ctx, req)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, req.Platform)
	}
}

type netlifySite struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (c *Client) deployNetlify(ctx context.Context, req Request) (Result, error) {
	var site netlifySite
	err := c.post(ctx, c.netlifyURL+"/sites", req.Token, map[string]any{
		"name":          req.SiteName,
		"custom_domain": req.SiteName + ".netlify.app",
	}, &site)
	if err != nil {
		return Result{}, fmt.Errorf("creating netlify site: %w", err)
	}

	err = c.post(ctx, c.netlifyURL+"/sites/"+site.ID+"/deploys", req.Token, map[string]any{
		"files": map[string]string{"/index.html": req.Code},
		"draft": false,
	}, nil)
	if err != nil {
		return Result{}, fmt.Errorf("deploying to netlify: %w", err)
	}

	return Result{Platform: PlatformNetlify, URL: site.URL, Message: "Successfully deployed to Netlify"}, nil
}

type vercelDeployment struct {
	URL string `json:"url"`
}

func (c *Client) deployVercel(ctx context.Context, req Request) (Result, error) {
	var dep vercelDeployment
	err := c.post(ctx, c.vercelURL+"/v12/deployments", req.Token, map[string]any{
		"name": req.SiteName,
		"files": []map[string]string{
			{"file": "index.html", "data": req.Code},
		},
		"projectSettings": map[string]any{
			"framework":    nil,
			"buildCommand": nil,
		},
	}, &dep)
	if err != nil {
		return Result{}, fmt.Errorf("deploying to vercel: %w", err)
	}

	url := dep.URL
	if url != "" && !strings.HasPrefix(url, "http") {
		url = "https://" + url
	}
	return Result{Platform: PlatformVercel, URL: url, Message: "Successfully deployed to Vercel"}, nil
}

func (c *Client) post(ctx context.Context, url, token string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeployFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrDeployFailed, err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%w: API error (status %d): %s", ErrDeployFailed, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrDeployFailed, err)
	}
	return nil
}
