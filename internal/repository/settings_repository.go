package repository

import (
	"context"
	"database/sql"

	"github.com/campusarrival/arrival-portal/internal/model"
)

// SettingsRepo reads and writes the singleton settings row.
type SettingsRepo struct{ DB *sql.DB }

// NewSettingsRepo returns a SettingsRepo bound to the given database.
func NewSettingsRepo(db *sql.DB) *SettingsRepo { return &SettingsRepo{DB: db} }

// SkipOffset returns the configured skip offset, falling back to the
// default when no settings row exists.
func (r *SettingsRepo) SkipOffset(ctx context.Context) (int, error) {
	var offset int
	err := r.DB.QueryRowContext(ctx,
		"SELECT skip_offset FROM settings ORDER BY id LIMIT 1").Scan(&offset)
	if err == sql.ErrNoRows {
		return model.DefaultSkipOffset, nil
	}
	if err != nil {
		return 0, err
	}
	return offset, nil
}

// SetSkipOffset upserts the singleton row with a new skip offset.
func (r *SettingsRepo) SetSkipOffset(ctx context.Context, offset int) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO settings (id, skip_offset) VALUES (1, ?) ON DUPLICATE KEY UPDATE skip_offset=VALUES(skip_offset)",
		offset)
	return err
}
