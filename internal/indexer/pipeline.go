// Package indexer turns parsed advisories into embedded chunks stored in
// SQLite and Qdrant.
package indexer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"advisory-ai/internal/advisory"
	"advisory-ai/internal/contextutil"
	"advisory-ai/internal/storage"
	"advisory-ai/internal/vectorstore"
)

// chunkNamespace is the UUIDv5 namespace for chunk point IDs. Deriving IDs
// from filename, section index, and chunk index keeps re-indexing
// deterministic: the same chunk always maps to the same Qdrant point.
var chunkNamespace = uuid.MustParse("8f6f36cb-7c29-4b9e-9f34-5f4a2f1d6a10")

// Embedder generates embedding vectors for a batch of texts.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Pipeline orchestrates the indexing of advisory documents into SQLite and Qdrant.
type Pipeline struct {
	corpus       *advisory.Corpus
	advisoryRepo storage.AdvisoryStore
	chunkRepo    storage.ChunkStore
	summarizer   advisory.Summarizer
	embedder     Embedder
	vectorStore  vectorstore.VectorStore
	collection   string
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(
	corpus *advisory.Corpus,
	advisoryRepo storage.AdvisoryStore,
	chunkRepo storage.ChunkStore,
	summarizer advisory.Summarizer,
	embedder Embedder,
	vectorStore vectorstore.VectorStore,
	collection string,
) *Pipeline {
	return &Pipeline{
		corpus:       corpus,
		advisoryRepo: advisoryRepo,
		chunkRepo:    chunkRepo,
		summarizer:   summarizer,
		embedder:     embedder,
		vectorStore:  vectorStore,
		collection:   collection,
	}
}

// ChunkID returns the deterministic point ID for a chunk of an advisory.
func ChunkID(filename string, sectionIndex, chunkIndex int) string {
	name := fmt.Sprintf("%s/%d/%d", filename, sectionIndex, chunkIndex)
	return uuid.NewSHA1(chunkNamespace, []byte(name)).String()
}

// IndexAdvisory indexes a single parsed advisory.
// It checks whether the document has changed (via hash), chunks every
// section, generates embeddings, and stores chunks in both SQLite and Qdrant.
func (p *Pipeline) IndexAdvisory(ctx context.Context, adv *advisory.Advisory) error {
	logger := contextutil.LoggerFromContext(ctx)

	existing, err := p.advisoryRepo.GetByFilename(ctx, adv.Filename)
	if err != nil && err != storage.ErrNotFound {
		return fmt.Errorf("failed to check existing advisory: %w", err)
	}

	// Skip re-indexing if hash matches
	if existing != nil && existing.Hash == adv.Hash {
		logger.DebugContext(ctx, "skipping unchanged advisory", "filename", adv.Filename, "hash", adv.Hash)
		return nil
	}

	// Chunk per section so each chunk keeps its section index.
	var chunkRecords []*storage.ChunkRecord
	var chunkTexts []string
	for sectionIdx := range adv.Sections {
		sectionChunks, err := adv.Sections[sectionIdx].Chunks(ctx, p.summarizer)
		if err != nil {
			return fmt.Errorf("failed to chunk %s: %w", adv.Filename, err)
		}
		for chunkIdx, chunk := range sectionChunks {
			chunkRecords = append(chunkRecords, &storage.ChunkRecord{
				ID:               ChunkID(adv.Filename, sectionIdx, chunkIdx),
				AdvisoryFilename: adv.Filename,
				SectionIndex:     sectionIdx,
				ChunkIndex:       chunkIdx,
				SourceType:       chunk.SourceType.String(),
				Text:             chunk.Text,
			})
			chunkTexts = append(chunkTexts, chunk.Text)
		}
	}

	if len(chunkRecords) == 0 {
		logger.WarnContext(ctx, "no chunks generated", "filename", adv.Filename)
		return nil
	}

	// Upsert advisory record
	record := &storage.AdvisoryRecord{
		Filename: adv.Filename,
		Title:    adv.Title,
		Hash:     adv.Hash,
	}
	if err := p.advisoryRepo.Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to upsert advisory: %w", err)
	}

	// If re-indexing, delete old chunks first
	if existing != nil {
		oldChunkIDs, err := p.chunkRepo.ListIDsByAdvisory(ctx, adv.Filename)
		if err != nil {
			return fmt.Errorf("failed to list old chunk IDs: %w", err)
		}

		if len(oldChunkIDs) > 0 {
			// Continue on Qdrant failure - the new upsert overwrites matching IDs
			if err := p.vectorStore.Delete(ctx, p.collection, oldChunkIDs); err != nil {
				logger.WarnContext(ctx, "failed to delete old chunks from Qdrant", "error", err, "count", len(oldChunkIDs))
			}

			if err := p.chunkRepo.DeleteByAdvisory(ctx, adv.Filename); err != nil {
				return fmt.Errorf("failed to delete old chunks from SQLite: %w", err)
			}
		}
	}

	// Generate embeddings
	embeddings, err := p.embedder.EmbedTexts(ctx, chunkTexts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(embeddings) != len(chunkRecords) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunkRecords), len(embeddings))
	}

	points := make([]vectorstore.Point, len(chunkRecords))
	for i, chunkRecord := range chunkRecords {
		sectionHeader := adv.Sections[chunkRecord.SectionIndex].Header.Content
		points[i] = vectorstore.Point{
			ID:  chunkRecord.ID,
			Vec: embeddings[i],
			Meta: map[string]any{
				"advisory_filename": adv.Filename,
				"advisory_title":    adv.Title,
				"section_index":     chunkRecord.SectionIndex,
				"section_header":    sectionHeader,
				"chunk_index":       chunkRecord.ChunkIndex,
				"source_type":       chunkRecord.SourceType,
			},
		}
	}

	// Insert chunks into SQLite
	for _, chunkRecord := range chunkRecords {
		if err := p.chunkRepo.Insert(ctx, chunkRecord); err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}

	// Batch upsert points to Qdrant
	if err := p.vectorStore.Upsert(ctx, p.collection, points); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}

	logger.InfoContext(ctx, "indexed advisory", "filename", adv.Filename, "chunks", len(chunkRecords), "title", adv.Title)
	return nil
}

// IndexAll indexes every advisory in the corpus.
// Errors for individual documents are logged but don't stop the indexing process.
func (p *Pipeline) IndexAll(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	advisories := p.corpus.All()
	logger.InfoContext(ctx, "starting indexing", "total_advisories", len(advisories))

	var successCount, errorCount int

	for _, adv := range advisories {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := p.IndexAdvisory(ctx, adv); err != nil {
			errorCount++
			logger.ErrorContext(ctx, "failed to index advisory", "filename", adv.Filename, "error", err)
			continue
		}

		successCount++
	}

	logger.InfoContext(ctx, "indexing completed", "total_advisories", len(advisories), "success", successCount, "errors", errorCount)

	if errorCount > 0 {
		return fmt.Errorf("indexing completed with %d errors", errorCount)
	}

	return nil
}
