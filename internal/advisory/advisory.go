package advisory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Advisory is one parsed and validated advisory document. It owns the
// block sequence; sections and chunks reference into it. An Advisory is
// never mutated after Parse returns.
type Advisory struct {
	Filename         string
	Title            string
	ExecutiveSummary string
	Hash             string // hex sha256 of the raw text, used to skip re-indexing
	Blocks           []Block
	Sections         []Section
}

// Parse tokenizes and validates text, then extracts the title, executive
// summary, and sections. Tokenizer failures surface as *StructureError and
// template failures as *ValidationError.
func Parse(filename, text string) (*Advisory, error) {
	blocks, err := Tokenize(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	if err := Validate(filename, blocks); err != nil {
		return nil, err
	}

	sum := sha256.Sum256([]byte(text))

	return &Advisory{
		Filename:         filename,
		Title:            strings.TrimPrefix(blocks[0].Content, TitlePrefix),
		ExecutiveSummary: blocks[3].Content,
		Hash:             hex.EncodeToString(sum[:]),
		Blocks:           blocks,
		Sections:         ExtractSections(blocks),
	}, nil
}

// Chunks concatenates every section's chunks in section order.
func (a *Advisory) Chunks(ctx context.Context, summarizer Summarizer) ([]Chunk, error) {
	var chunks []Chunk
	for i := range a.Sections {
		sectionChunks, err := a.Sections[i].Chunks(ctx, summarizer)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.Filename, err)
		}
		chunks = append(chunks, sectionChunks...)
	}
	return chunks, nil
}

// CodeBlocks returns every code block in the advisory, in source order.
func (a *Advisory) CodeBlocks() []*Block {
	var out []*Block
	for i := range a.Blocks {
		if a.Blocks[i].Type == BlockCode {
			out = append(out, &a.Blocks[i])
		}
	}
	return out
}
