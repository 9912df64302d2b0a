package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// KeyAccessToken is the settings key holding the bearer token.
const KeyAccessToken = "access_token"

// SettingsRepository is a key/value store over the settings table.
//
// It satisfies services.TokenStore, so the access token survives between runs.
type SettingsRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSettingsRepository creates a new [SettingsRepository] with the given database connection
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db, now: time.Now}
}

// Get returns the value for key and whether it was set.
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query setting %s: %w", key, err)
	}
	return value, true, nil
}

// Set inserts or replaces the value for key.
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, key, value, r.now()); err != nil {
		return fmt.Errorf("failed to store setting %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Removing a missing key is not an error.
func (r *SettingsRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}

// UpdatedAt reports when key was last written.
func (r *SettingsRepository) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	var at time.Time
	err := r.db.QueryRowContext(ctx, `SELECT updated_at FROM settings WHERE key = ?`, key).Scan(&at)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query setting %s: %w", key, err)
	}
	return at, nil
}

// Token returns the stored access token, or "" when logged out.
func (r *SettingsRepository) Token(ctx context.Context) (string, error) {
	value, _, err := r.Get(ctx, KeyAccessToken)
	return value, err
}

// SetToken stores the access token.
func (r *SettingsRepository) SetToken(ctx context.Context, token string) error {
	return r.Set(ctx, KeyAccessToken, token)
}

// ClearToken forgets the access token.
func (r *SettingsRepository) ClearToken(ctx context.Context) error {
	return r.Delete(ctx, KeyAccessToken)
}
