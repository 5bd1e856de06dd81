package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubAPIURL = "https://api.github.com"

// GitHubExchanger turns a GitHub OAuth code into an identity.
type GitHubExchanger struct {
	config  *oauth2.Config
	baseURL string
}

// NewGitHubExchanger creates an exchanger for the given OAuth app.
func NewGitHubExchanger(clientID, clientSecret string) *GitHubExchanger {
	return &GitHubExchanger{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     github.Endpoint,
			Scopes:       []string{"user:email"},
		},
		baseURL: githubAPIURL,
	}
}

// WithEndpoints points the exchanger at alternative token and API hosts.
func (g *GitHubExchanger) WithEndpoints(tokenURL, apiURL string) *GitHubExchanger {
	g.config.Endpoint = oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams}
	g.baseURL = strings.TrimRight(apiURL, "/")
	return g
}

type githubUser struct {
	Login   string `json:"login"`
	Name    string `json:"name"`
	Company string `json:"company"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// Exchange redeems code and loads the account's primary email.
func (g *GitHubExchanger) Exchange(ctx context.Context, code string) (Identity, error) {
	if strings.TrimSpace(code) == "" {
		return Identity{}, fmt.Errorf("%w: missing oauth code", ErrUnauthorized)
	}

	tok, err := g.config.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: exchanging github code: %v", ErrUnauthorized, err)
	}
	client := g.config.Client(ctx, tok)

	var user githubUser
	if err := g.getJSON(ctx, client, "/user", &user); err != nil {
		return Identity{}, err
	}
	var emails []githubEmail
	if err := g.getJSON(ctx, client, "/user/emails", &emails); err != nil {
		return Identity{}, err
	}

	primary := ""
	for _, e := range emails {
		if e.Primary {
			primary = e.Email
			break
		}
	}
	if primary == "" {
		return Identity{}, ErrNoEmail
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}
	return Identity{Email: primary, Name: name, Company: user.Company, Token: tok.AccessToken}, nil
}

func (g *GitHubExchanger) getJSON(ctx context.Context, client *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building github request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: github %s: %v", ErrUnauthorized, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: github %s returned status %d", ErrUnauthorized, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Join(ErrUnauthorized, fmt.Errorf("decoding github %s: %w", path, err))
	}
	return nil
}
