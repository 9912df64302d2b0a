package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/ldx/internal/models"
	"github.com/desertthunder/ldx/internal/shared"
)

// ScanRepository stores accepted detections.
type ScanRepository struct {
	db *sql.DB
}

// NewScanRepository creates a new [ScanRepository] with the given database connection
func NewScanRepository(db *sql.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// Create inserts rec, assigning an ID and timestamp when missing.
func (r *ScanRepository) Create(ctx context.Context, rec *models.ScanRecord) error {
	rec.Code = strings.TrimSpace(rec.Code)
	if rec.Code == "" {
		return fmt.Errorf("%w: scan code is empty", shared.ErrValidation)
	}
	if rec.ID == "" {
		rec.ID = shared.GenerateID()
	}
	if rec.ScannedAt.IsZero() {
		rec.ScannedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO scans (id, code, format, confidence, engine, scanned_at) VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query, rec.ID, rec.Code, rec.Format, rec.Confidence, rec.Engine, rec.ScannedAt); err != nil {
		return fmt.Errorf("failed to insert scan: %w", err)
	}
	return nil
}

// List returns the most recent scans first. A non-positive limit returns all of them.
func (r *ScanRepository) List(ctx context.Context, limit int) ([]models.ScanRecord, error) {
	query := `
		SELECT id, code, format, confidence, engine, scanned_at
		FROM scans
		ORDER BY scanned_at DESC, id ASC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	records := []models.ScanRecord{}
	for rows.Next() {
		var rec models.ScanRecord
		if err := rows.Scan(&rec.ID, &rec.Code, &rec.Format, &rec.Confidence, &rec.Engine, &rec.ScannedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scans: %w", err)
	}
	return records, nil
}

// Prune keeps the newest keep scans and deletes the rest.
func (r *ScanRepository) Prune(ctx context.Context, keep int) (int64, error) {
	var removed int64
	err := withTx(r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			DELETE FROM scans WHERE id NOT IN (
				SELECT id FROM scans ORDER BY scanned_at DESC, id ASC LIMIT ?
			)
		`, max(keep, 0))
		if err != nil {
			return fmt.Errorf("failed to prune scans: %w", err)
		}
		removed, err = affected(result)
		return err
	})
	return removed, err
}
