package advisory

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Summarizer condenses a code block into prose suitable for embedding.
// Implementations typically call an external model; a failure is fatal for
// the chunk pass of the document being processed.
type Summarizer interface {
	Summarize(ctx context.Context, code string) (string, error)
}

// Chunk is one retrieval unit: a sentence, a table row, or a code summary.
// Section and Block point back into the owning Advisory.
type Chunk struct {
	Text       string
	Section    *Section
	SourceType BlockType
	Block      *Block
}

// Chunks converts the section into retrieval chunks. Paragraphs and list
// items are split into sentences, tables yield one chunk per data row, and
// code blocks are summarized. If the section holds code and summarizer is
// nil, it returns a *ConfigurationError before producing anything.
//
// Code summaries are fetched concurrently; each one fills a pre-assigned
// slot so the returned chunks are always in source order.
func (s *Section) Chunks(ctx context.Context, summarizer Summarizer) ([]Chunk, error) {
	if s.HasCode() && summarizer == nil {
		return nil, &ConfigurationError{
			Message: fmt.Sprintf("section %q contains code blocks but no summarizer was provided", s.Header.Content),
		}
	}

	var chunks []Chunk
	var codeIdx []int

	for _, b := range s.Blocks {
		switch b.Type {
		case BlockParagraph, BlockListItem:
			for _, sentence := range SplitSentences(b.Content) {
				chunks = append(chunks, Chunk{Text: sentence, Section: s, SourceType: b.Type, Block: b})
			}
		case BlockTable:
			for _, row := range b.TableRows {
				chunks = append(chunks, Chunk{Text: formatTableRow(b.TableHeader, row), Section: s, SourceType: BlockTable, Block: b})
			}
		case BlockCode:
			codeIdx = append(codeIdx, len(chunks))
			chunks = append(chunks, Chunk{Section: s, SourceType: BlockCode, Block: b})
		case BlockHeader:
			panic(fmt.Sprintf("advisory: header block %q inside section body", b.Content))
		default:
			panic(fmt.Sprintf("advisory: unknown block type %d", int(b.Type)))
		}
	}

	if len(codeIdx) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		for _, idx := range codeIdx {
			g.Go(func() error {
				summary, err := summarizer.Summarize(gctx, chunks[idx].Block.Content)
				if err != nil {
					return fmt.Errorf("failed to summarize code block: %w", err)
				}
				chunks[idx].Text = summary
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return chunks, nil
}

// formatTableRow renders one data row as comma-joined key-value pairs,
// with each column name lowered and space-collapsed to snake case.
func formatTableRow(header, row []string) string {
	parts := make([]string, len(row))
	for i, value := range row {
		key := strings.ReplaceAll(strings.ToLower(header[i]), " ", "_")
		parts[i] = fmt.Sprintf("%s: %q", key, value)
	}
	return strings.Join(parts, ", ")
}
