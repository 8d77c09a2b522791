// Package rag answers unstructured questions by semantic search over the
// advisory corpus followed by answer synthesis.
package rag

import (
	"context"
	"fmt"
	"strings"

	"advisory-ai/internal/advisory"
	"advisory-ai/internal/contextutil"
	"advisory-ai/internal/llm"
	"advisory-ai/internal/vectorstore"
)

// NoResultsAnswer is returned when the vector search finds nothing relevant.
const NoResultsAnswer = "I couldn't find any relevant security advisory information " +
	"for your question. Try rephrasing or asking about specific " +
	"vulnerability types (XSS, SQL injection, RCE) or CVE IDs."

const advisoryPrompt = `You are a security expert answering questions based on security advisory documents.

CONTEXT FROM SECURITY ADVISORIES:
%s

USER QUESTION: %s

INSTRUCTIONS:
1. Answer the question using ONLY the information provided in the context above
2. If the context doesn't contain enough information to fully answer, say so clearly
3. Be specific - mention CVE IDs, package names, version numbers when relevant
4. For remediation questions, include concrete steps (upgrade commands, code fixes)
5. Keep your answer focused and concise

ANSWER:`

// Embedder generates embedding vectors for a batch of texts.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Engine answers questions over the advisory corpus.
type Engine interface {
	// Ask retrieves relevant advisory sections and synthesizes an answer.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
}

// ragEngine implements the Engine interface.
type ragEngine struct {
	embedder    Embedder
	vectorStore vectorstore.VectorStore
	collection  string
	corpus      *advisory.Corpus
	generator   llm.Generator
}

// NewEngine creates a new RAG engine.
func NewEngine(
	embedder Embedder,
	vectorStore vectorstore.VectorStore,
	collection string,
	corpus *advisory.Corpus,
	generator llm.Generator,
) Engine {
	return &ragEngine{
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
		corpus:      corpus,
		generator:   generator,
	}
}

// Ask answers a question using retrieval over advisory sections.
func (e *ragEngine) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	logger.InfoContext(ctx, "advisory query started", "question", req.Question, "k", req.K)

	embeddings, err := e.embedder.EmbedTexts(ctx, []string{req.Question})
	if err != nil {
		return AskResponse{}, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(embeddings) == 0 {
		return AskResponse{}, fmt.Errorf("no embedding returned for question")
	}

	k := req.K
	if k == 0 {
		k = 5
	}
	if k > 20 {
		k = 20
	}

	results, err := e.vectorStore.Search(ctx, e.collection, embeddings[0], k, nil)
	if err != nil {
		return AskResponse{}, fmt.Errorf("failed to search vector store: %w", err)
	}

	logger.InfoContext(ctx, "vector search completed", "results", len(results), "k", k)

	if len(results) == 0 {
		return AskResponse{
			Answer:  NoResultsAnswer,
			Sources: []SourceRef{},
		}, nil
	}

	contextText, sources := e.formatContext(ctx, results)
	if contextText == "" {
		return AskResponse{
			Answer:  NoResultsAnswer,
			Sources: []SourceRef{},
		}, nil
	}

	answer, err := e.generator.Generate(ctx, fmt.Sprintf(advisoryPrompt, contextText, req.Question))
	if err != nil {
		return AskResponse{}, fmt.Errorf("failed to generate answer: %w", err)
	}

	logger.InfoContext(ctx, "advisory query completed", "sources", len(sources), "answer_length", len(answer))

	return AskResponse{
		Answer:  strings.TrimSpace(answer),
		Sources: sources,
	}, nil
}

// formatContext groups chunk hits by advisory, renders each distinct section
// once, and collects one source reference per section. Hits referencing
// advisories or sections missing from the corpus are dropped.
func (e *ragEngine) formatContext(ctx context.Context, results []vectorstore.SearchResult) (string, []SourceRef) {
	logger := contextutil.LoggerFromContext(ctx)

	type group struct {
		adv      *advisory.Advisory
		sections []int
	}

	var order []string
	groups := make(map[string]*group)
	seenSection := make(map[string]bool)

	for _, result := range results {
		filename, _ := result.Meta["advisory_filename"].(string)
		sectionIdx, ok := sectionIndex(result.Meta["section_index"])
		if filename == "" || !ok {
			logger.WarnContext(ctx, "search hit missing advisory metadata", "point_id", result.PointID)
			continue
		}

		adv, found := e.corpus.Get(filename)
		if !found {
			logger.WarnContext(ctx, "search hit references unknown advisory", "filename", filename)
			continue
		}
		if sectionIdx < 0 || sectionIdx >= len(adv.Sections) {
			logger.WarnContext(ctx, "search hit references invalid section", "filename", filename, "section_index", sectionIdx)
			continue
		}

		key := fmt.Sprintf("%s/%d", filename, sectionIdx)
		if seenSection[key] {
			continue
		}
		seenSection[key] = true

		g, exists := groups[filename]
		if !exists {
			g = &group{adv: adv}
			groups[filename] = g
			order = append(order, filename)
		}
		g.sections = append(g.sections, sectionIdx)
	}

	var parts []string
	var sources []SourceRef

	for _, filename := range order {
		g := groups[filename]
		parts = append(parts, fmt.Sprintf("=== ADVISORY: %s ===\n", g.adv.Title))

		for _, idx := range g.sections {
			section := &g.adv.Sections[idx]
			parts = append(parts, section.Text(advisory.RenderFull))
			parts = append(parts, "")

			sources = append(sources, SourceRef{
				AdvisoryTitle:    g.adv.Title,
				SectionHeader:    section.Header.Content,
				AdvisoryFilename: filename,
			})
		}

		parts = append(parts, "---\n")
	}

	return strings.TrimSpace(strings.Join(parts, "\n")), sources
}

// sectionIndex coerces a payload value to an int. Qdrant returns integers as
// int64; JSON round trips produce float64.
func sectionIndex(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
