package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ganot/appforge/internal/domain/project"
	"github.com/ganot/appforge/internal/identity"
	"github.com/ganot/appforge/internal/repository"
)

// ProjectRepository implements project.Repository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, name, language, code, prompt, setup_instructions, explanation, created_at, updated_at, version`

func scanProject(row interface{ Scan(...any) error }) (*project.Project, error) {
	var proj project.Project
	err := row.Scan(
		&proj.ID,
		&proj.Name,
		&proj.Language,
		&proj.Code,
		&proj.Prompt,
		&proj.SetupInstructions,
		&proj.Explanation,
		&proj.CreatedAt,
		&proj.UpdatedAt,
		&proj.Version,
	)
	if err != nil {
		return nil, err
	}
	proj.ChatHistory = []project.Message{}
	return &proj, nil
}

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, owner identity.OwnerID, proj *project.Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO projects (` + projectColumns + `, owner)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		proj.ID,
		proj.Name,
		proj.Language,
		proj.Code,
		proj.Prompt,
		proj.SetupInstructions,
		proj.Explanation,
		proj.CreatedAt,
		proj.UpdatedAt,
		proj.Version,
		owner.String(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("project %s already exists: %w", proj.ID, repository.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	if err := insertMessages(ctx, tx, proj.ID, 0, proj.ChatHistory); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Get retrieves a project and its chat history
func (r *ProjectRepository) Get(ctx context.Context, owner identity.OwnerID, id string) (*project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ? AND owner = ?`

	proj, err := scanProject(r.db.QueryRowContext(ctx, query, id, owner.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	messages, err := r.messages(ctx, `WHERE m.project_id = ?`, id)
	if err != nil {
		return nil, err
	}
	proj.ChatHistory = append(proj.ChatHistory, messages[id]...)
	return proj, nil
}

// List returns all projects of an owner in creation order
func (r *ProjectRepository) List(ctx context.Context, owner identity.OwnerID) ([]project.Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE owner = ?
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := r.db.QueryContext(ctx, query, owner.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	projects := []project.Project{}
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *proj)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	messages, err := r.messages(ctx,
		`JOIN projects p ON p.id = m.project_id WHERE p.owner = ?`, owner.String())
	if err != nil {
		return nil, err
	}
	for i := range projects {
		projects[i].ChatHistory = append(projects[i].ChatHistory, messages[projects[i].ID]...)
	}
	return projects, nil
}

// Update rewrites the project row if its version still matches and appends
// chat messages the store has not seen yet
func (r *ProjectRepository) Update(ctx context.Context, owner identity.OwnerID, proj *project.Project, expectedVersion int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE projects
		SET name = ?, language = ?, code = ?, prompt = ?, setup_instructions = ?,
		    explanation = ?, updated_at = ?, version = ?
		WHERE id = ? AND owner = ? AND version = ?
	`
	result, err := tx.ExecContext(ctx, query,
		proj.Name,
		proj.Language,
		proj.Code,
		proj.Prompt,
		proj.SetupInstructions,
		proj.Explanation,
		proj.UpdatedAt,
		proj.Version,
		proj.ID,
		owner.String(),
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var exists bool
		checkQuery := `SELECT EXISTS(SELECT 1 FROM projects WHERE id = ? AND owner = ?)`
		if err := tx.QueryRowContext(ctx, checkQuery, proj.ID, owner.String()).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check project existence: %w", err)
		}
		if !exists {
			return repository.ErrNotFound
		}
		// Project exists but version doesn't match - conflict
		return repository.ErrConflict
	}

	var stored int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM project_messages WHERE project_id = ?`, proj.ID).Scan(&stored); err != nil {
		return fmt.Errorf("failed to count messages: %w", err)
	}
	if stored < len(proj.ChatHistory) {
		if err := insertMessages(ctx, tx, proj.ID, stored, proj.ChatHistory[stored:]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete removes a project and its messages
func (r *ProjectRepository) Delete(ctx context.Context, owner identity.OwnerID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM project_messages WHERE project_id IN (SELECT id FROM projects WHERE id = ? AND owner = ?)`,
		id, owner.String())
	if err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ? AND owner = ?`, id, owner.String())
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertMessages(ctx context.Context, tx *sql.Tx, projectID string, startSeq int, messages []project.Message) error {
	for i, msg := range messages {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO project_messages (project_id, seq, content, is_user, created_at) VALUES (?, ?, ?, ?, ?)`,
			projectID, startSeq+i, msg.Content, msg.IsUser, msg.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}
	return nil
}

// messages loads chat history grouped by project id. filter is appended to
// the base query and must reference the messages table as m.
func (r *ProjectRepository) messages(ctx context.Context, filter string, args ...any) (map[string][]project.Message, error) {
	query := `
		SELECT m.project_id, m.content, m.is_user, m.created_at
		FROM project_messages m
		` + filter + `
		ORDER BY m.project_id, m.seq ASC
	`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	out := map[string][]project.Message{}
	for rows.Next() {
		var projectID string
		var msg project.Message
		if err := rows.Scan(&projectID, &msg.Content, &msg.IsUser, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		out[projectID] = append(out[projectID], msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}
	return out, nil
}
