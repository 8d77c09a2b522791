package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_advisory_store.go -package=mocks advisory-ai/internal/storage AdvisoryStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// AdvisoryStore defines the interface for advisory storage operations.
type AdvisoryStore interface {
	// GetByFilename gets an advisory by its filename.
	// Returns nil and ErrNotFound if not found.
	GetByFilename(ctx context.Context, filename string) (*AdvisoryRecord, error)
	// Upsert inserts a new advisory or updates an existing one.
	Upsert(ctx context.Context, advisory *AdvisoryRecord) error
	// ListAll returns all indexed advisories ordered by filename.
	ListAll(ctx context.Context) ([]AdvisoryRecord, error)
}

// AdvisoryRepo provides methods for advisory operations.
// It implements the AdvisoryStore interface.
type AdvisoryRepo struct {
	db *sql.DB
}

// NewAdvisoryRepo creates a new AdvisoryRepo.
func NewAdvisoryRepo(db *sql.DB) *AdvisoryRepo {
	return &AdvisoryRepo{db: db}
}

// GetByFilename gets an advisory by its filename.
// Returns nil and ErrNotFound if not found.
func (r *AdvisoryRepo) GetByFilename(ctx context.Context, filename string) (*AdvisoryRecord, error) {
	var advisory AdvisoryRecord
	var indexedAtStr string

	err := r.db.QueryRowContext(ctx,
		"SELECT filename, title, hash, indexed_at FROM advisories WHERE filename = ?",
		filename,
	).Scan(&advisory.Filename, &advisory.Title, &advisory.Hash, &indexedAtStr)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query advisory: %w", err)
	}

	advisory.IndexedAt, err = parseTimestamp(indexedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse indexed_at timestamp: %w", err)
	}

	return &advisory, nil
}

// Upsert inserts a new advisory or updates an existing one.
// On update, title, hash, and indexed_at are refreshed.
func (r *AdvisoryRepo) Upsert(ctx context.Context, advisory *AdvisoryRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO advisories (filename, title, hash, indexed_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (filename) DO UPDATE SET
		 title = excluded.title, hash = excluded.hash, indexed_at = CURRENT_TIMESTAMP`,
		advisory.Filename, advisory.Title, advisory.Hash,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert advisory: %w", err)
	}

	return nil
}

// ListAll returns all indexed advisories ordered by filename.
func (r *AdvisoryRepo) ListAll(ctx context.Context) ([]AdvisoryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT filename, title, hash, indexed_at FROM advisories ORDER BY filename",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query advisories: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var advisories []AdvisoryRecord
	for rows.Next() {
		var advisory AdvisoryRecord
		var indexedAtStr string
		if err := rows.Scan(&advisory.Filename, &advisory.Title, &advisory.Hash, &indexedAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan advisory: %w", err)
		}
		advisory.IndexedAt, err = parseTimestamp(indexedAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse indexed_at timestamp: %w", err)
		}
		advisories = append(advisories, advisory)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return advisories, nil
}

// parseTimestamp parses a SQLite DATETIME string.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err == nil {
		return t, nil
	}
	// SQLite might use RFC3339 depending on how the value was written
	return time.Parse(time.RFC3339, s)
}
