package identity

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// TokenVerifier is the subset of the Firebase auth client used here.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseResolver resolves Firebase ID tokens.
type FirebaseResolver struct {
	verifier TokenVerifier
}

// NewFirebaseResolver wraps an existing verifier.
func NewFirebaseResolver(verifier TokenVerifier) *FirebaseResolver {
	return &FirebaseResolver{verifier: verifier}
}

// NewFirebaseResolverFromCredentials initialises the Firebase Admin SDK from
// a service account file.
func NewFirebaseResolverFromCredentials(ctx context.Context, credentialsPath string) (*FirebaseResolver, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path is required")
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting firebase auth client: %w", err)
	}
	return NewFirebaseResolver(client), nil
}

// Resolve implements Resolver.
func (r *FirebaseResolver) Resolve(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrUnauthorized
	}

	decoded, err := r.verifier.VerifyIDToken(ctx, token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	email, _ := decoded.Claims["email"].(string)
	if strings.TrimSpace(email) == "" {
		return Identity{}, ErrNoEmail
	}
	name, _ := decoded.Claims["name"].(string)
	if name == "" {
		name = email
	}

	return Identity{Email: email, Name: name, Token: token}, nil
}
