package indexer

import (
	"context"
	"fmt"
)

// Stats summarizes the state of the index.
type Stats struct {
	// CorpusSize is the number of advisories loaded from disk.
	CorpusSize int `json:"corpus_size"`
	// AdvisoriesIndexed is the number of advisories recorded in the database.
	AdvisoriesIndexed int `json:"advisories_indexed"`
	// ChunksIndexed is the total number of chunks in the database.
	ChunksIndexed int `json:"chunks_indexed"`
}

// GetStats reports how much of the corpus has been indexed.
func (p *Pipeline) GetStats(ctx context.Context) (*Stats, error) {
	advisories, err := p.advisoryRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list advisories: %w", err)
	}

	chunkCount, err := p.chunkRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}

	return &Stats{
		CorpusSize:        p.corpus.Len(),
		AdvisoriesIndexed: len(advisories),
		ChunksIndexed:     chunkCount,
	}, nil
}
