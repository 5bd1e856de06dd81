package identity

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// APIKeyResolver resolves hashed API keys stored in the api_keys table.
type APIKeyResolver struct {
	db *sql.DB
}

// NewAPIKeyResolver creates a resolver backed by db.
func NewAPIKeyResolver(db *sql.DB) *APIKeyResolver {
	return &APIKeyResolver{db: db}
}

// Resolve implements Resolver.
func (r *APIKeyResolver) Resolve(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrUnauthorized
	}

	var ident Identity
	var company sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT email, name, company FROM api_keys WHERE key_hash = ?`,
		HashToken(token),
	).Scan(&ident.Email, &ident.Name, &company)
	if errors.Is(err, sql.ErrNoRows) {
		return Identity{}, ErrUnauthorized
	}
	if err != nil {
		return Identity{}, fmt.Errorf("looking up api key: %w", err)
	}
	ident.Company = company.String

	_, _ = r.db.ExecContext(ctx, `UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, time.Now(), HashToken(token))
	return ident, nil
}

// Register stores a new API key for the identity.
func (r *APIKeyResolver) Register(ctx context.Context, token string, ident Identity) error {
	if token == "" || ident.Owner().IsZero() {
		return fmt.Errorf("register api key: %w", ErrUnauthorized)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, email, name, company, created_at) VALUES (?, ?, ?, ?, ?)`,
		HashToken(token), ident.Owner().String(), ident.Name, ident.Company, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("register api key: %w", err)
	}
	return nil
}

// HashToken returns the hex sha256 of token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
