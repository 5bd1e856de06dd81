package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ganot/appforge/internal/domain/credential"
	"github.com/ganot/appforge/internal/repository"
)

// CredentialRepository implements credential.Repository for SQLite
type CredentialRepository struct {
	db *DB
}

// NewCredentialRepository creates a new CredentialRepository
func NewCredentialRepository(db *DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Put stores a key, replacing the provider's previous key
func (r *CredentialRepository) Put(ctx context.Context, entry credential.Entry) error {
	query := `
		INSERT INTO credentials (provider, api_key, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(provider) DO UPDATE SET api_key = excluded.api_key, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, entry.Provider, entry.Key, entry.UpdatedAt); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// Get retrieves the key for a provider
func (r *CredentialRepository) Get(ctx context.Context, provider credential.Provider) (*credential.Entry, error) {
	var entry credential.Entry
	err := r.db.QueryRowContext(ctx,
		`SELECT provider, api_key, updated_at FROM credentials WHERE provider = ?`, provider,
	).Scan(&entry.Provider, &entry.Key, &entry.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return &entry, nil
}

// List returns every stored key
func (r *CredentialRepository) List(ctx context.Context) ([]credential.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT provider, api_key, updated_at FROM credentials ORDER BY provider`)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer rows.Close()

	var entries []credential.Entry
	for rows.Next() {
		var entry credential.Entry
		if err := rows.Scan(&entry.Provider, &entry.Key, &entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credential rows: %w", err)
	}
	return entries, nil
}
