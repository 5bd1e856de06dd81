package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ganot/appforge/internal/domain/history"
	"github.com/ganot/appforge/internal/repository"
)

// HistoryRepository implements history.Repository for SQLite
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates a new HistoryRepository
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

const historyColumns = `id, language, prompt, code, setup_instructions, explanation, created_at`

func scanHistory(row interface{ Scan(...any) error }) (*history.Entry, error) {
	var e history.Entry
	if err := row.Scan(&e.ID, &e.Language, &e.Prompt, &e.Code, &e.SetupInstructions, &e.Explanation, &e.Timestamp); err != nil {
		return nil, err
	}
	return &e, nil
}

// Prepend inserts entry as the newest and trims the ledger to limit entries
// in one transaction
func (r *HistoryRepository) Prepend(ctx context.Context, entry history.Entry, limit int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO history (`+historyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Language, entry.Prompt, entry.Code, entry.SetupInstructions, entry.Explanation, entry.Timestamp,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("history entry %s already exists: %w", entry.ID, repository.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	if limit > 0 {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM history WHERE seq NOT IN (SELECT seq FROM history ORDER BY seq DESC LIMIT ?)`, limit)
		if err != nil {
			return fmt.Errorf("failed to trim history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// List returns the ledger newest first
func (r *HistoryRepository) List(ctx context.Context) ([]history.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+historyColumns+` FROM history ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []history.Entry
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}
	return entries, nil
}

// Get retrieves one entry by id
func (r *HistoryRepository) Get(ctx context.Context, id string) (*history.Entry, error) {
	e, err := scanHistory(r.db.QueryRowContext(ctx, `SELECT `+historyColumns+` FROM history WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}
	return e, nil
}
