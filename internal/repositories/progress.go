package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/kwdl/internal/models"
	"github.com/desertthunder/kwdl/internal/shared"
)

// ProgressRepository persists per-file line cursors in the progress table.
//
// It implements tasks.ProgressManager. Each Save is a single upsert, so the stored cursor is either the old
// value or the new one.
type ProgressRepository struct {
	db *sql.DB
}

// NewProgressRepository creates a new ProgressRepository with the given database connection
func NewProgressRepository(db *sql.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Load returns the stored cursor for path, or 0 when none exists
func (r *ProgressRepository) Load(ctx context.Context, path string) (int, error) {
	var cursor int
	err := r.db.QueryRowContext(ctx, `SELECT cursor FROM progress WHERE path = ?`, path).Scan(&cursor)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load progress: %w", err)
	}
	return cursor, nil
}

// Save durably replaces the cursor for path
func (r *ProgressRepository) Save(ctx context.Context, path string, cursor int) error {
	if cursor < 0 {
		return fmt.Errorf("%w: cursor must not be negative: %d", shared.ErrInvalidArgument, cursor)
	}

	query := `
		INSERT INTO progress (path, cursor, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET cursor = excluded.cursor, updated_at = excluded.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, path, cursor, time.Now()); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// Reset removes the cursor for path so the next run starts at line 0.
//
// Resetting a path with no stored cursor is not an error.
func (r *ProgressRepository) Reset(ctx context.Context, path string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM progress WHERE path = ?`, path); err != nil {
		return fmt.Errorf("failed to reset progress: %w", err)
	}
	return nil
}

// List returns every stored cursor ordered by path
func (r *ProgressRepository) List(ctx context.Context) ([]models.Cursor, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT path, cursor, updated_at FROM progress ORDER BY path ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	var cursors []models.Cursor
	for rows.Next() {
		var c models.Cursor
		if err := rows.Scan(&c.Path, &c.Line, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		cursors = append(cursors, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return cursors, nil
}
