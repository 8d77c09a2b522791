package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks advisory-ai/internal/storage ChunkStore

import (
	"context"
	"database/sql"
	"fmt"
)

// ChunkStore defines the interface for chunk storage operations.
type ChunkStore interface {
	// Insert inserts a single chunk into the database.
	// The chunk.ID must be set (UUID) before calling this method.
	Insert(ctx context.Context, chunk *ChunkRecord) error
	// DeleteByAdvisory deletes all chunks for a given advisory filename.
	DeleteByAdvisory(ctx context.Context, filename string) error
	// ListIDsByAdvisory returns all chunk IDs for a given advisory, ordered by
	// section_index then chunk_index.
	ListIDsByAdvisory(ctx context.Context, filename string) ([]string, error)
	// GetByID gets a chunk by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*ChunkRecord, error)
	// Count returns the total number of chunks in the database.
	Count(ctx context.Context) (int, error)
}

// ChunkRepo provides methods for chunk operations.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// Insert inserts a single chunk into the database.
// The chunk.ID must be set (UUID) before calling this method.
func (r *ChunkRepo) Insert(ctx context.Context, chunk *ChunkRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO chunks (id, advisory_filename, section_index, chunk_index, source_type, text) VALUES (?, ?, ?, ?, ?, ?)",
		chunk.ID, chunk.AdvisoryFilename, chunk.SectionIndex, chunk.ChunkIndex, chunk.SourceType, chunk.Text,
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}
	return nil
}

// DeleteByAdvisory deletes all chunks for a given advisory filename.
// Used when re-indexing an advisory to remove old chunks before inserting new ones.
func (r *ChunkRepo) DeleteByAdvisory(ctx context.Context, filename string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM chunks WHERE advisory_filename = ?", filename)
	if err != nil {
		return fmt.Errorf("failed to delete chunks by advisory: %w", err)
	}
	return nil
}

// ListIDsByAdvisory returns all chunk IDs for a given advisory, ordered by
// section_index then chunk_index.
// Returns an empty slice if no chunks exist (not an error).
// Used to get Qdrant point IDs for deletion before re-indexing.
func (r *ChunkRepo) ListIDsByAdvisory(ctx context.Context, filename string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM chunks WHERE advisory_filename = ? ORDER BY section_index, chunk_index",
		filename,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk IDs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan chunk ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return ids, nil
}

// GetByID gets a chunk by its ID. Returns ErrNotFound if not found.
func (r *ChunkRepo) GetByID(ctx context.Context, id string) (*ChunkRecord, error) {
	var chunk ChunkRecord
	err := r.db.QueryRowContext(ctx,
		"SELECT id, advisory_filename, section_index, chunk_index, source_type, text FROM chunks WHERE id = ?",
		id,
	).Scan(&chunk.ID, &chunk.AdvisoryFilename, &chunk.SectionIndex, &chunk.ChunkIndex, &chunk.SourceType, &chunk.Text)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk: %w", err)
	}

	return &chunk, nil
}

// Count returns the total number of chunks in the database.
func (r *ChunkRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}
