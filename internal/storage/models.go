package storage

import "time"

// AdvisoryRecord represents an indexed advisory document in the database.
type AdvisoryRecord struct {
	Filename  string // Advisory filename, unique per corpus
	Title     string // Title extracted from the first header
	Hash      string // SHA256 hex string of file content
	IndexedAt time.Time
}

// ChunkRecord represents a chunk of advisory text, indexed for vector search.
type ChunkRecord struct {
	ID               string // UUID (same as Qdrant point ID)
	AdvisoryFilename string // Foreign key to advisories.filename
	SectionIndex     int    // Index of the section within the advisory
	ChunkIndex       int    // Index of the chunk within the section
	SourceType       string // Block type the chunk was derived from
	Text             string // Chunk text content
}
